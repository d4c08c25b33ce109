package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ki2helper/panel-api/internal/models"
)

func TestLogin_UnknownUsername(t *testing.T) {
	inserted := false
	admins := &mockAdminRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.Admin, error) {
			return nil, models.ErrNotFound
		},
	}
	attempts := &mockAttemptRepo{
		InsertFunc: func(ctx context.Context, attempt *models.LoginAttempt) error {
			inserted = true
			return nil
		},
		DeleteAllForUserFunc: func(ctx context.Context, userID int64) (int64, error) {
			return 0, nil
		},
	}

	svc := newTestAuthService(admins, attempts, &mockNotifier{})

	result, err := svc.Login(context.Background(), "ghost", "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.False(t, inserted, "no attempt should be created for an unknown handle")
}

func TestLogin_InvalidatesPriorAttemptsAndDispatchesOTP(t *testing.T) {
	var deletedFor int64
	var insertedAttempt *models.LoginAttempt
	sent := make(chan int, 1)

	admins := &mockAdminRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.Admin, error) {
			return &models.Admin{ID: "a1", UserID: 42, Username: username, Role: models.RoleManager}, nil
		},
	}
	attempts := &mockAttemptRepo{
		DeleteAllForUserFunc: func(ctx context.Context, userID int64) (int64, error) {
			deletedFor = userID
			return 1, nil
		},
		InsertFunc: func(ctx context.Context, attempt *models.LoginAttempt) error {
			insertedAttempt = attempt
			return nil
		},
	}
	notifier := &mockNotifier{
		SendOTPFunc: func(ctx context.Context, userID int64, otp int) error {
			sent <- otp
			return nil
		},
	}

	svc := newTestAuthService(admins, attempts, notifier)

	result, err := svc.Login(context.Background(), "oleh", "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, int64(42), result.UserID)
	assert.Equal(t, int64(42), deletedFor, "prior attempts must be invalidated first")

	require.NotNil(t, insertedAttempt)
	assert.Equal(t, result.AttemptID, insertedAttempt.ID)
	assert.False(t, insertedAttempt.IsMagic)
	assert.GreaterOrEqual(t, insertedAttempt.OTP, 100000)
	assert.LessOrEqual(t, insertedAttempt.OTP, 999999)

	select {
	case otp := <-sent:
		assert.Equal(t, insertedAttempt.OTP, otp)
	case <-time.After(2 * time.Second):
		t.Fatal("otp was never dispatched")
	}
}

func TestCheckOTP_WrongCode(t *testing.T) {
	consumed := false
	attempts := &mockAttemptRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.LoginAttempt, error) {
			return &models.LoginAttempt{ID: id, UserID: 42, Username: "oleh", OTP: 123456}, nil
		},
		ConsumeFunc: func(ctx context.Context, id string) error {
			consumed = true
			return nil
		},
	}

	svc := newTestAuthService(&mockAdminRepo{}, attempts, &mockNotifier{})

	result, err := svc.CheckOTP(context.Background(), "att-1", 654321)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.AccessToken)
	assert.False(t, consumed, "a rejected code must not consume the attempt")
}

func TestCheckOTP_UnknownAttempt(t *testing.T) {
	attempts := &mockAttemptRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.LoginAttempt, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(&mockAdminRepo{}, attempts, &mockNotifier{})

	result, err := svc.CheckOTP(context.Background(), "gone", 123456)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestCheckOTP_Success(t *testing.T) {
	consumed := make(chan string, 1)
	attempts := &mockAttemptRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.LoginAttempt, error) {
			return &models.LoginAttempt{ID: id, UserID: 42, Username: "oleh", OTP: 123456}, nil
		},
		ConsumeFunc: func(ctx context.Context, id string) error {
			consumed <- id
			return nil
		},
	}
	notifier := &mockNotifier{
		MemberFunc: func(ctx context.Context, userID int64) (*models.Profile, error) {
			return &models.Profile{UserID: userID, Username: "tg_oleh", FirstName: "Oleh", LastName: "K"}, nil
		},
		PhotoFunc: func(ctx context.Context, userID int64) (string, error) {
			return "data:image/jpeg;base64,abc", nil
		},
	}

	svc := newTestAuthService(&mockAdminRepo{}, attempts, notifier)

	result, err := svc.CheckOTP(context.Background(), "att-1", 123456)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NotNil(t, result.User)
	assert.Equal(t, int64(42), result.User.UserID)
	assert.Equal(t, "oleh", result.User.Username, "panel handle wins over the Telegram username")
	assert.Equal(t, "Oleh", result.User.FirstName)
	assert.Equal(t, "data:image/jpeg;base64,abc", result.User.Pic)

	tm := testTokenManager()
	claims, err := tm.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "oleh", claims.Username)

	userID, err := tm.ValidateRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	select {
	case id := <-consumed:
		assert.Equal(t, "att-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("attempt was never consumed")
	}
}

func TestCreateMagicLink_RecordsMessageID(t *testing.T) {
	var sentLink string
	var inserted *models.LoginAttempt

	attempts := &mockAttemptRepo{
		DeleteAllForUserFunc: func(ctx context.Context, userID int64) (int64, error) {
			return 0, nil
		},
		InsertFunc: func(ctx context.Context, attempt *models.LoginAttempt) error {
			inserted = attempt
			return nil
		},
	}
	notifier := &mockNotifier{
		SendMagicLinkFunc: func(ctx context.Context, userID int64, link string) (int, error) {
			sentLink = link
			return 777, nil
		},
	}

	svc := newTestAuthService(&mockAdminRepo{}, attempts, notifier)

	err := svc.CreateMagicLink(context.Background(), 42, "oleh")
	require.NoError(t, err)

	require.NotNil(t, inserted)
	assert.True(t, inserted.IsMagic)
	assert.Equal(t, 777, inserted.MessageID, "the link message id must be recorded on the attempt")

	assert.True(t, strings.HasPrefix(sentLink, "https://panel.example.com/magic-login?uid=42&um=oleh&otp="))
	assert.Contains(t, sentLink, "&hash_="+inserted.ID)
}

func TestCreateMagicLink_SendFailureLeavesNoAttempt(t *testing.T) {
	inserted := false
	attempts := &mockAttemptRepo{
		DeleteAllForUserFunc: func(ctx context.Context, userID int64) (int64, error) {
			return 0, nil
		},
		InsertFunc: func(ctx context.Context, attempt *models.LoginAttempt) error {
			inserted = true
			return nil
		},
	}
	notifier := &mockNotifier{
		SendMagicLinkFunc: func(ctx context.Context, userID int64, link string) (int, error) {
			return 0, assert.AnError
		},
	}

	svc := newTestAuthService(&mockAdminRepo{}, attempts, notifier)

	err := svc.CreateMagicLink(context.Background(), 42, "oleh")
	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.False(t, inserted)
}

func TestMagicLogin_WindowBoundary(t *testing.T) {
	cases := []struct {
		name    string
		age     time.Duration
		success bool
	}{
		{"just inside", 5*time.Minute + 59*time.Second, true},
		{"boundary exceeded", 6 * time.Minute, false},
		{"fresh", time.Second, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attempts := &mockAttemptRepo{
				GetMatchingFunc: func(ctx context.Context, id string, userID int64, username string, otp int, isMagic bool) (*models.LoginAttempt, error) {
					return &models.LoginAttempt{
						ID:          id,
						UserID:      userID,
						Username:    username,
						OTP:         otp,
						IsMagic:     true,
						AttemptDate: time.Now().UTC().Add(-tc.age),
					}, nil
				},
				ConsumeFunc: func(ctx context.Context, id string) error { return nil },
			}

			svc := newTestAuthService(&mockAdminRepo{}, attempts, &mockNotifier{})

			result, err := svc.MagicLogin(context.Background(), "att-1", 42, "oleh", 123456, true)
			require.NoError(t, err)
			assert.Equal(t, tc.success, result.Success)
		})
	}
}

func TestMagicLogin_MismatchedRecord(t *testing.T) {
	attempts := &mockAttemptRepo{
		GetMatchingFunc: func(ctx context.Context, id string, userID int64, username string, otp int, isMagic bool) (*models.LoginAttempt, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(&mockAdminRepo{}, attempts, &mockNotifier{})

	result, err := svc.MagicLogin(context.Background(), "att-1", 42, "oleh", 123456, true)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestRegister_ConflictOrdering(t *testing.T) {
	admins := &mockAdminRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*models.Admin, error) {
			return &models.Admin{ID: "a1", UserID: userID}, nil
		},
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.Admin, error) {
			return &models.Admin{ID: "a1", Username: username}, nil
		},
	}

	svc := newTestAuthService(admins, &mockAttemptRepo{}, &mockNotifier{})

	// Both conflict; the user id check must win.
	_, err := svc.Register(context.Background(), 42, "oleh", models.RoleManager)
	assert.ErrorIs(t, err, models.ErrUserIDTaken)

	admins.GetByUserIDFunc = func(ctx context.Context, userID int64) (*models.Admin, error) {
		return nil, models.ErrNotFound
	}

	_, err = svc.Register(context.Background(), 42, "oleh", models.RoleManager)
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
}

func TestRegister_Success(t *testing.T) {
	admins := &mockAdminRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*models.Admin, error) {
			return nil, models.ErrNotFound
		},
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.Admin, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
			admin.ID = "new-id"
			if admin.Role == "" {
				admin.Role = models.RoleManager
			}
			return admin, nil
		},
	}

	svc := newTestAuthService(admins, &mockAttemptRepo{}, &mockNotifier{})

	admin, err := svc.Register(context.Background(), 42, "oleh", "")
	require.NoError(t, err)
	assert.Equal(t, "new-id", admin.ID)
	assert.Equal(t, models.RoleManager, admin.Role)
}

func TestRefresh(t *testing.T) {
	tm := testTokenManager()
	refreshToken, err := tm.GenerateRefreshToken(42)
	require.NoError(t, err)

	admins := &mockAdminRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*models.Admin, error) {
			return &models.Admin{ID: "a1", UserID: userID, Username: "oleh"}, nil
		},
	}

	svc := newTestAuthService(admins, &mockAttemptRepo{}, &mockNotifier{})

	accessToken, err := svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)

	claims, err := tm.ValidateAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "oleh", claims.Username)
}

func TestRefresh_SubjectNoLongerAdmin(t *testing.T) {
	tm := testTokenManager()
	refreshToken, err := tm.GenerateRefreshToken(42)
	require.NoError(t, err)

	admins := &mockAdminRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*models.Admin, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(admins, &mockAttemptRepo{}, &mockNotifier{})

	_, err = svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestAuthService(&mockAdminRepo{}, &mockAttemptRepo{}, &mockNotifier{})

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
