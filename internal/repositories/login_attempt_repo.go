package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/store"
)

// LoginAttemptRepository manages the short-lived one-time-password records.
// Records are never updated in place: a new login replaces whatever was
// live for the subject.
type LoginAttemptRepository struct {
	store DocumentStore
}

func NewLoginAttemptRepository(s DocumentStore) *LoginAttemptRepository {
	return &LoginAttemptRepository{store: s}
}

func (r *LoginAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) error {
	return r.store.InsertOne(ctx, store.CollectionLoginAttempts, attempt.ID, attempt)
}

func (r *LoginAttemptRepository) GetByID(ctx context.Context, id string) (*models.LoginAttempt, error) {
	raw, err := r.store.FindOne(ctx, store.CollectionLoginAttempts, id)
	if err != nil {
		return nil, err
	}
	return decodeAttempt(raw)
}

// GetMatching performs the full-field lookup used by magic-link validation:
// the record must match on id, subject, handle, code and the magic flag.
func (r *LoginAttemptRepository) GetMatching(ctx context.Context, id string, userID int64, username string, otp int, isMagic bool) (*models.LoginAttempt, error) {
	raw, err := r.store.FindOne(ctx, store.CollectionLoginAttempts, id)
	if err != nil {
		return nil, err
	}

	attempt, err := decodeAttempt(raw)
	if err != nil {
		return nil, err
	}

	if attempt.UserID != userID || attempt.Username != username ||
		attempt.OTP != otp || attempt.IsMagic != isMagic {
		return nil, models.ErrNotFound
	}

	return attempt, nil
}

// Consume deletes a validated attempt.
func (r *LoginAttemptRepository) Consume(ctx context.Context, id string) error {
	_, err := r.store.DeleteOne(ctx, store.CollectionLoginAttempts, id)
	return err
}

// DeleteAllForUser invalidates every live attempt for the subject. Called
// before a new attempt is created so at most one stays live; when two
// logins race, the second one wins.
func (r *LoginAttemptRepository) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	return r.store.DeleteManyBy(ctx, store.CollectionLoginAttempts,
		map[string]interface{}{"user_id": userID})
}

// DeleteOlderThan purges stale attempts; used by the background cleanup.
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.store.DeleteOlderThan(ctx, store.CollectionLoginAttempts, cutoff)
}

func decodeAttempt(raw json.RawMessage) (*models.LoginAttempt, error) {
	var attempt models.LoginAttempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return nil, fmt.Errorf("failed to decode login attempt: %w", err)
	}
	return &attempt, nil
}
