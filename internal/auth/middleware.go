package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ki2helper/panel-api/internal/models"
	pkghttp "github.com/ki2helper/panel-api/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// ClaimsContextKey is the key for storing access claims in context
const ClaimsContextKey contextKey = "claims"

// AdminFetcher looks up an admin by its Telegram user id.
type AdminFetcher interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Admin, error)
}

// Authorized validates the bearer access token and requires the subject to
// still exist as an admin record. Fails closed with 401 on a missing token,
// invalid signature or expiry, or a subject that is no longer an admin.
func Authorized(tm *TokenManager, admins AdminFetcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			claims, err := tm.ValidateAccessToken(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			userID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			if _, err := admins.GetByUserID(r.Context(), userID); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Not authenticated")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuper enforces the super role on top of Authorized. Insufficient
// privilege is reported as 401 with a distinct message, not 403, to match
// what the panel frontend expects.
func RequireSuper(admins AdminFetcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			userID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			admin, err := admins.GetByUserID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Not authenticated")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			if !admin.IsSuper() {
				pkghttp.WriteUnauthorized(w, "Not enough rights")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext extracts access claims from the request context.
func ClaimsFromContext(r *http.Request) *models.AccessClaims {
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// SubjectID returns the numeric subject id from claims, or 0.
func SubjectID(claims *models.AccessClaims) int64 {
	if claims == nil {
		return 0
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return userID
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	return parts[1], true
}
