package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/models"
	pkglogger "github.com/ki2helper/panel-api/pkg/logger"
)

// AdminRepository defines the admin lookups the login flow needs.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
}

// LoginAttemptRepository defines the attempt store operations.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt *models.LoginAttempt) error
	GetByID(ctx context.Context, id string) (*models.LoginAttempt, error)
	GetMatching(ctx context.Context, id string, userID int64, username string, otp int, isMagic bool) (*models.LoginAttempt, error)
	Consume(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
}

// Notifier is the external messaging collaborator: it delivers codes and
// links to the subject and resolves Telegram profile data.
type Notifier interface {
	SendOTP(ctx context.Context, userID int64, otp int) error
	SendMagicLink(ctx context.Context, userID int64, link string) (int, error)
	Member(ctx context.Context, userID int64) (*models.Profile, error)
	Photo(ctx context.Context, userID int64) (string, error)
}

// LoginResult is the soft outcome of a login request. Accepted=false means
// the handle is unknown; it is not an error, so callers cannot probe which
// handles exist via status codes.
type LoginResult struct {
	Accepted  bool
	UserID    int64
	AttemptID string
}

// SessionResult is the soft outcome of OTP or magic-link validation.
// Success=false carries no further detail: wrong code, missing record and
// stale link are indistinguishable to the caller.
type SessionResult struct {
	Success      bool
	User         *models.Profile
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates the OTP / magic-link login flow.
type AuthService struct {
	admins        AdminRepository
	attempts      LoginAttemptRepository
	notifier      Notifier
	tm            *auth.TokenManager
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
	magicLinkBase string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	admins AdminRepository,
	attempts LoginAttemptRepository,
	notifier Notifier,
	tm *auth.TokenManager,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	magicLinkBase string,
) *AuthService {
	return &AuthService{
		admins:        admins,
		attempts:      attempts,
		notifier:      notifier,
		tm:            tm,
		logger:        logger,
		audit:         audit,
		magicLinkBase: magicLinkBase,
	}
}

// Login starts a new attempt for the given handle. All prior attempts for
// the subject are invalidated first, so exactly one stays live; the code is
// dispatched off the critical path.
func (s *AuthService) Login(ctx context.Context, username, ipAddress string) (*LoginResult, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_rejected",
				IPAddress:     ipAddress,
				FailureReason: "unknown_username",
			})
			return &LoginResult{Accepted: false}, nil
		}
		s.logger.Error("failed to look up admin", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.attempts.DeleteAllForUser(ctx, admin.UserID); err != nil {
		s.logger.Error("failed to invalidate prior attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	attempt, err := newLoginAttempt(admin.UserID, admin.Username, false)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	if err := s.attempts.Insert(ctx, attempt); err != nil {
		s.logger.Error("failed to persist login attempt", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	go s.dispatchOTP(attempt.UserID, attempt.OTP)

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_accepted",
		UserID:    admin.UserID,
		Username:  admin.Username,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{
		Accepted:  true,
		UserID:    admin.UserID,
		AttemptID: attempt.ID,
	}, nil
}

// CheckOTP validates a submitted code against the attempt record. On
// success the attempt is consumed in the background and a token pair is
// minted for the subject.
func (s *AuthService) CheckOTP(ctx context.Context, attemptID string, otp int) (*SessionResult, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &SessionResult{Success: false}, nil
		}
		s.logger.Error("failed to look up login attempt", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if attempt.OTP != otp {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "otp_rejected",
			UserID:        attempt.UserID,
			FailureReason: "code_mismatch",
		})
		return &SessionResult{Success: false}, nil
	}

	s.consumeAsync(attempt.ID)

	return s.establishSession(ctx, attempt)
}

// CreateMagicLink invalidates prior attempts and delivers a time-boxed
// magic link. The link message is sent synchronously so its message id can
// be recorded on the attempt.
func (s *AuthService) CreateMagicLink(ctx context.Context, userID int64, username string) error {
	if _, err := s.attempts.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to invalidate prior attempts", slog.Any("error", err))
		return models.ErrInternalServer
	}

	attempt, err := newLoginAttempt(userID, username, true)
	if err != nil {
		return models.ErrInternalServer
	}

	link := fmt.Sprintf("%s?uid=%d&um=%s&otp=%d&hash_=%s",
		s.magicLinkBase, userID, url.QueryEscape(username), attempt.OTP, attempt.ID)

	messageID, err := s.notifier.SendMagicLink(ctx, userID, link)
	if err != nil {
		s.logger.Error("failed to dispatch magic link", slog.Any("error", err))
		return models.ErrInternalServer
	}
	attempt.MessageID = messageID

	if err := s.attempts.Insert(ctx, attempt); err != nil {
		s.logger.Error("failed to persist magic link attempt", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// MagicLogin validates the parameters carried by a magic link. The record
// must match on every field and the attempt must still be inside the
// five-whole-minute window.
func (s *AuthService) MagicLogin(ctx context.Context, attemptID string, userID int64, username string, otp int, isMagic bool) (*SessionResult, error) {
	now := time.Now().UTC()

	attempt, err := s.attempts.GetMatching(ctx, attemptID, userID, username, otp, isMagic)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &SessionResult{Success: false}, nil
		}
		s.logger.Error("failed to look up login attempt", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.consumeAsync(attempt.ID)

	if !attempt.WithinMagicWindow(now) {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "magic_login_rejected",
			UserID:        attempt.UserID,
			FailureReason: "link_expired",
		})
		return &SessionResult{Success: false}, nil
	}

	return s.establishSession(ctx, attempt)
}

// Register creates a new admin. Duplicate user ids and duplicate handles
// are independent conflicts, checked in that order.
func (s *AuthService) Register(ctx context.Context, userID int64, username, role string) (*models.Admin, error) {
	if _, err := s.admins.GetByUserID(ctx, userID); err == nil {
		return nil, models.ErrUserIDTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check user id", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.admins.GetByUsername(ctx, username); err == nil {
		return nil, models.ErrUsernameTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	admin, err := s.admins.Create(ctx, &models.Admin{
		UserID:   userID,
		Username: username,
		Role:     role,
	})
	if err != nil {
		s.logger.Error("failed to create admin", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "admin_registered",
		UserID:    admin.UserID,
		Username:  admin.Username,
		Success:   true,
	})

	return admin, nil
}

// Refresh mints a new access token from a refresh token. The subject must
// still exist as an admin.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tm.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", models.ErrUnauthorized
	}

	admin, err := s.admins.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrUnauthorized
		}
		s.logger.Error("failed to look up admin for refresh", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	profile := &models.Profile{UserID: admin.UserID, Username: admin.Username}
	if member, err := s.notifier.Member(ctx, admin.UserID); err == nil {
		profile.FirstName = member.FirstName
		profile.LastName = member.LastName
	} else {
		s.logger.Warn("failed to resolve member for refresh", slog.Any("error", err))
	}

	accessToken, err := s.tm.GenerateAccessToken(profile)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return accessToken, nil
}

// ProfileFor builds the profile response for an authenticated subject using
// the cached token claims plus a freshly fetched avatar.
func (s *AuthService) ProfileFor(ctx context.Context, claims *models.AccessClaims) (*models.Profile, error) {
	userID := auth.SubjectID(claims)

	pic, err := s.notifier.Photo(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to resolve avatar", slog.Any("error", err))
		pic = ""
	}

	return &models.Profile{
		UserID:    userID,
		Username:  claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Pic:       pic,
	}, nil
}

// establishSession builds the user profile and mints the token pair after a
// validated attempt.
func (s *AuthService) establishSession(ctx context.Context, attempt *models.LoginAttempt) (*SessionResult, error) {
	profile, err := s.buildProfile(ctx, attempt.UserID, attempt.Username)
	if err != nil {
		s.logger.Error("failed to build profile", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(profile)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(attempt.UserID)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_validated",
		UserID:    attempt.UserID,
		Username:  attempt.Username,
		Success:   true,
	})

	return &SessionResult{
		Success:      true,
		User:         profile,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// buildProfile resolves Telegram names and avatar for the subject. The
// panel handle wins over the Telegram username.
func (s *AuthService) buildProfile(ctx context.Context, userID int64, username string) (*models.Profile, error) {
	member, err := s.notifier.Member(ctx, userID)
	if err != nil {
		return nil, err
	}

	pic, err := s.notifier.Photo(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		UserID:    userID,
		Username:  username,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Pic:       pic,
	}, nil
}

// dispatchOTP delivers the code outside the request's critical path.
func (s *AuthService) dispatchOTP(userID int64, otp int) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.notifier.SendOTP(ctx, userID, otp); err != nil {
		s.logger.Error("failed to dispatch otp",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}
}

// consumeAsync deletes a validated attempt without delaying the response.
// The code match already happened, so a concurrent validation of the same
// record cannot succeed twice with different codes.
func (s *AuthService) consumeAsync(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.attempts.Consume(ctx, id); err != nil {
			s.logger.Error("failed to consume login attempt",
				slog.String("attempt_id", id),
				slog.Any("error", err))
		}
	}()
}

func newLoginAttempt(userID int64, username string, isMagic bool) (*models.LoginAttempt, error) {
	otp, err := auth.GenerateOTP()
	if err != nil {
		return nil, err
	}

	return &models.LoginAttempt{
		ID:          uuid.New().String(),
		UserID:      userID,
		Username:    username,
		OTP:         otp,
		IsMagic:     isMagic,
		AttemptDate: time.Now().UTC(),
	}, nil
}
