package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/config"
	"github.com/ki2helper/panel-api/internal/models"
	pkglogger "github.com/ki2helper/panel-api/pkg/logger"
)

type mockAdminRepo struct {
	GetByUsernameFunc func(ctx context.Context, username string) (*models.Admin, error)
	GetByUserIDFunc   func(ctx context.Context, userID int64) (*models.Admin, error)
	CreateFunc        func(ctx context.Context, admin *models.Admin) (*models.Admin, error)
}

func (m *mockAdminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return m.GetByUsernameFunc(ctx, username)
}

func (m *mockAdminRepo) GetByUserID(ctx context.Context, userID int64) (*models.Admin, error) {
	return m.GetByUserIDFunc(ctx, userID)
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	return m.CreateFunc(ctx, admin)
}

type mockAttemptRepo struct {
	InsertFunc           func(ctx context.Context, attempt *models.LoginAttempt) error
	GetByIDFunc          func(ctx context.Context, id string) (*models.LoginAttempt, error)
	GetMatchingFunc      func(ctx context.Context, id string, userID int64, username string, otp int, isMagic bool) (*models.LoginAttempt, error)
	ConsumeFunc          func(ctx context.Context, id string) error
	DeleteAllForUserFunc func(ctx context.Context, userID int64) (int64, error)
}

func (m *mockAttemptRepo) Insert(ctx context.Context, attempt *models.LoginAttempt) error {
	return m.InsertFunc(ctx, attempt)
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, id string) (*models.LoginAttempt, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockAttemptRepo) GetMatching(ctx context.Context, id string, userID int64, username string, otp int, isMagic bool) (*models.LoginAttempt, error) {
	return m.GetMatchingFunc(ctx, id, userID, username, otp, isMagic)
}

func (m *mockAttemptRepo) Consume(ctx context.Context, id string) error {
	return m.ConsumeFunc(ctx, id)
}

func (m *mockAttemptRepo) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	return m.DeleteAllForUserFunc(ctx, userID)
}

type mockNotifier struct {
	SendOTPFunc       func(ctx context.Context, userID int64, otp int) error
	SendMagicLinkFunc func(ctx context.Context, userID int64, link string) (int, error)
	MemberFunc        func(ctx context.Context, userID int64) (*models.Profile, error)
	PhotoFunc         func(ctx context.Context, userID int64) (string, error)
}

func (m *mockNotifier) SendOTP(ctx context.Context, userID int64, otp int) error {
	if m.SendOTPFunc == nil {
		return nil
	}
	return m.SendOTPFunc(ctx, userID, otp)
}

func (m *mockNotifier) SendMagicLink(ctx context.Context, userID int64, link string) (int, error) {
	if m.SendMagicLinkFunc == nil {
		return 1, nil
	}
	return m.SendMagicLinkFunc(ctx, userID, link)
}

func (m *mockNotifier) Member(ctx context.Context, userID int64) (*models.Profile, error) {
	if m.MemberFunc == nil {
		return &models.Profile{UserID: userID, FirstName: "Test", LastName: "User"}, nil
	}
	return m.MemberFunc(ctx, userID)
}

func (m *mockNotifier) Photo(ctx context.Context, userID int64) (string, error) {
	if m.PhotoFunc == nil {
		return "/assets/images/avatars/avatar_default.jpg", nil
	}
	return m.PhotoFunc(ctx, userID)
}

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		AccessSecret:       "test-access-secret-0123456789",
		RefreshSecret:      "test-refresh-secret-0123456789",
		SigningAlg:         "HS256",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func newTestAuthService(admins AdminRepository, attempts LoginAttemptRepository, notifier Notifier) *AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(
		admins,
		attempts,
		notifier,
		testTokenManager(),
		logger,
		pkglogger.NewAuditLogger(logger),
		"https://panel.example.com/magic-login",
	)
}
