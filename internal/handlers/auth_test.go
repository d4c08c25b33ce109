package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/services"
)

func newAuthHandler(flow *mockAuthFlow) *AuthHandler {
	return NewAuthHandler(flow, time.Hour, 24*time.Hour, testLogger())
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginHandler(t *testing.T) {
	flow := &mockAuthFlow{
		LoginFunc: func(ctx context.Context, username, ipAddress string) (*services.LoginResult, error) {
			if username == "oleh" {
				return &services.LoginResult{Accepted: true, UserID: 42, AttemptID: "att-1"}, nil
			}
			return &services.LoginResult{Accepted: false}, nil
		},
	}
	h := newAuthHandler(flow)

	t.Run("known handle", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"oleh"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["accepted"])
		assert.Equal(t, float64(42), body["user_id"])
		assert.Equal(t, "att-1", body["attempt_id"])
	})

	t.Run("unknown handle still 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ghost"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"accepted":false`)
		assert.NotContains(t, rec.Body.String(), "attempt_id")
	})

	t.Run("empty username rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":""}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckOTPHandler_SuccessSetsCookies(t *testing.T) {
	flow := &mockAuthFlow{
		CheckOTPFunc: func(ctx context.Context, attemptID string, otp int) (*services.SessionResult, error) {
			return &services.SessionResult{
				Success:      true,
				User:         &models.Profile{UserID: 42, Username: "oleh"},
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
			}, nil
		},
	}
	h := newAuthHandler(flow)

	req := httptest.NewRequest(http.MethodPost, "/auth/check-otp",
		strings.NewReader(`{"_id":"att-1","otp":123456,"user_id":42,"username":"oleh"}`))
	rec := httptest.NewRecorder()
	h.CheckOTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "access-token", body.Token)
	require.NotNil(t, body.User)
	assert.Equal(t, int64(42), body.User.UserID)

	authCookie := cookieByName(t, rec, auth.AccessTokenCookie)
	require.NotNil(t, authCookie)
	assert.Equal(t, "access-token", authCookie.Value)
	assert.True(t, authCookie.HttpOnly)
	assert.True(t, authCookie.Secure)

	refreshCookie := cookieByName(t, rec, auth.RefreshTokenCookie)
	require.NotNil(t, refreshCookie)
	assert.Equal(t, "refresh-token", refreshCookie.Value)
}

func TestCheckOTPHandler_FailureIsSoft(t *testing.T) {
	flow := &mockAuthFlow{
		CheckOTPFunc: func(ctx context.Context, attemptID string, otp int) (*services.SessionResult, error) {
			return &services.SessionResult{Success: false}, nil
		},
	}
	h := newAuthHandler(flow)

	req := httptest.NewRequest(http.MethodPost, "/auth/check-otp",
		strings.NewReader(`{"_id":"att-1","otp":999999}`))
	rec := httptest.NewRecorder()
	h.CheckOTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Nil(t, cookieByName(t, rec, auth.AccessTokenCookie), "no cookies on rejection")
}

func TestMagicLoginHandler(t *testing.T) {
	var gotIsMagic bool
	flow := &mockAuthFlow{
		MagicLoginFunc: func(ctx context.Context, attemptID string, userID int64, username string, otp int, isMagic bool) (*services.SessionResult, error) {
			gotIsMagic = isMagic
			return &services.SessionResult{
				Success:      true,
				User:         &models.Profile{UserID: userID, Username: username},
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
			}, nil
		},
	}
	h := newAuthHandler(flow)

	req := httptest.NewRequest(http.MethodPost, "/auth/magic-login",
		strings.NewReader(`{"_id":"att-1","user_id":42,"username":"oleh","otp":123456,"is_magic":true}`))
	rec := httptest.NewRecorder()
	h.MagicLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotIsMagic)
	assert.NotNil(t, cookieByName(t, rec, auth.AccessTokenCookie))
}

func TestRegisterHandler_Conflicts(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"duplicate user id", models.ErrUserIDTaken, "user_id"},
		{"duplicate username", models.ErrUsernameTaken, "username"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow := &mockAuthFlow{
				RegisterFunc: func(ctx context.Context, userID int64, username, role string) (*models.Admin, error) {
					return nil, tc.err
				},
			}
			h := newAuthHandler(flow)

			req := httptest.NewRequest(http.MethodPost, "/auth/register",
				strings.NewReader(`{"user_id":42,"username":"oleh"}`))
			rec := httptest.NewRecorder()
			h.Register(rec, req)

			require.Equal(t, http.StatusConflict, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestRegisterHandler_Created(t *testing.T) {
	flow := &mockAuthFlow{
		RegisterFunc: func(ctx context.Context, userID int64, username, role string) (*models.Admin, error) {
			return &models.Admin{ID: "new-id", UserID: userID, Username: username, Role: models.RoleManager}, nil
		},
	}
	h := newAuthHandler(flow)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"user_id":42,"username":"oleh"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"_id":"new-id"`)
}

func TestRefreshHandler(t *testing.T) {
	flow := &mockAuthFlow{
		RefreshFunc: func(ctx context.Context, refreshToken string) (string, error) {
			if refreshToken == "good-refresh" {
				return "new-access", nil
			}
			return "", models.ErrUnauthorized
		},
	}
	h := newAuthHandler(flow)

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "bad"})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token rotates auth cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "good-refresh"})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token":"new-access"`)

		authCookie := cookieByName(t, rec, auth.AccessTokenCookie)
		require.NotNil(t, authCookie)
		assert.Equal(t, "new-access", authCookie.Value)
	})
}

func TestLogoutHandler_ClearsCookies(t *testing.T) {
	h := newAuthHandler(&mockAuthFlow{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	authCookie := cookieByName(t, rec, auth.AccessTokenCookie)
	require.NotNil(t, authCookie)
	assert.Empty(t, authCookie.Value)
	assert.Negative(t, authCookie.MaxAge)
}
