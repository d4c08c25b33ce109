package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpMin  = 100000
	otpSpan = 900000
)

// GenerateOTP returns a uniformly random 6-digit one-time code in
// [100000, 999999]. Codes are not checked against prior attempts; a fresh
// attempt simply replaces whatever was live for the subject.
func GenerateOTP() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return 0, fmt.Errorf("failed to generate otp: %w", err)
	}
	return otpMin + int(n.Int64()), nil
}
