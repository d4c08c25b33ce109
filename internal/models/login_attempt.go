package models

import "time"

// LoginAttempt is an ephemeral proof-of-login record. At most one live
// attempt exists per user id; starting a new attempt deletes all prior ones.
type LoginAttempt struct {
	ID          string    `json:"_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	OTP         int       `json:"otp"`
	IsMagic     bool      `json:"is_magic"`
	MessageID   int       `json:"message_id"`
	AttemptDate time.Time `json:"attempt_date"`
}

// MagicLinkWindowMinutes bounds how old a magic-link attempt may be when it
// is validated. Elapsed time is compared as whole minutes (floor of elapsed
// seconds / 60), so up to just under six minutes of wall clock can pass.
const MagicLinkWindowMinutes = 5

// WithinMagicWindow reports whether the attempt is still valid at the given
// validation time.
func (la *LoginAttempt) WithinMagicWindow(now time.Time) bool {
	elapsed := int(now.Sub(la.AttemptDate).Seconds()) / 60
	return elapsed <= MagicLinkWindowMinutes
}
