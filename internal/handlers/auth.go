package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/services"
	pkghttp "github.com/ki2helper/panel-api/pkg/http"
)

// AuthFlow is the slice of the auth service the handlers need.
type AuthFlow interface {
	Login(ctx context.Context, username, ipAddress string) (*services.LoginResult, error)
	CheckOTP(ctx context.Context, attemptID string, otp int) (*services.SessionResult, error)
	CreateMagicLink(ctx context.Context, userID int64, username string) error
	MagicLogin(ctx context.Context, attemptID string, userID int64, username string, otp int, isMagic bool) (*services.SessionResult, error)
	Register(ctx context.Context, userID int64, username, role string) (*models.Admin, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// AuthHandler serves the login, token and registration endpoints.
type AuthHandler struct {
	flow          AuthFlow
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *slog.Logger
}

func NewAuthHandler(flow AuthFlow, accessExpiry, refreshExpiry time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		flow:          flow,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		logger:        logger,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
}

type loginResponse struct {
	Accepted  bool   `json:"accepted"`
	UserID    int64  `json:"user_id,omitempty"`
	AttemptID string `json:"attempt_id,omitempty"`
}

// Login starts an OTP attempt. Unknown handles get {accepted:false} with
// 200 so the endpoint cannot be used to enumerate admins.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.flow.Login(r.Context(), req.Username, pkghttp.ExtractClientIP(r, nil))
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, loginResponse{
		Accepted:  result.Accepted,
		UserID:    result.UserID,
		AttemptID: result.AttemptID,
	})
}

type checkOTPRequest struct {
	ID       string `json:"_id" validate:"required"`
	OTP      int    `json:"otp" validate:"required"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type sessionResponse struct {
	Success bool            `json:"success"`
	User    *models.Profile `json:"user,omitempty"`
	Token   string          `json:"token,omitempty"`
}

// CheckOTP validates a submitted code. Success returns the profile and the
// access token, and sets both auth cookies.
func (h *AuthHandler) CheckOTP(w http.ResponseWriter, r *http.Request) {
	var req checkOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.flow.CheckOTP(r.Context(), req.ID, req.OTP)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.writeSession(w, result)
}

type createMagicLinkRequest struct {
	UserID   int64  `json:"user_id" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// CreateMagicLink dispatches a magic link to the subject's Telegram chat.
func (h *AuthHandler) CreateMagicLink(w http.ResponseWriter, r *http.Request) {
	var req createMagicLinkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.flow.CreateMagicLink(r.Context(), req.UserID, req.Username); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type magicLoginRequest struct {
	ID       string `json:"_id" validate:"required"`
	UserID   int64  `json:"user_id" validate:"required"`
	Username string `json:"username" validate:"required"`
	OTP      int    `json:"otp" validate:"required"`
	IsMagic  bool   `json:"is_magic"`
}

// MagicLogin validates the parameters carried by a magic link.
func (h *AuthHandler) MagicLogin(w http.ResponseWriter, r *http.Request) {
	var req magicLoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.flow.MagicLogin(r.Context(), req.ID, req.UserID, req.Username, req.OTP, req.IsMagic)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.writeSession(w, result)
}

type registerRequest struct {
	UserID   int64  `json:"user_id" validate:"required"`
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=manager super"`
}

// Register creates a new admin. Conflicts name the offending field so the
// frontend can highlight it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	admin, err := h.flow.Register(r.Context(), req.UserID, req.Username, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserIDTaken):
			pkghttp.WriteConflict(w, "user_id")
		case errors.Is(err, models.ErrUsernameTaken):
			pkghttp.WriteConflict(w, "username")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, admin)
}

// Refresh mints a new access token from the refresh cookie and rotates the
// AUTH cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	accessToken, err := h.flow.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Not authenticated")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetAuthCookies(w, accessToken, refreshToken, h.accessExpiry, h.refreshExpiry)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"token": accessToken})
}

// Logout clears both auth cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearAuthCookies(w)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, result *services.SessionResult) {
	if !result.Success {
		pkghttp.WriteJSON(w, http.StatusOK, sessionResponse{Success: false})
		return
	}

	auth.SetAuthCookies(w, result.AccessToken, result.RefreshToken, h.accessExpiry, h.refreshExpiry)
	pkghttp.WriteJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		User:    result.User,
		Token:   result.AccessToken,
	})
}
