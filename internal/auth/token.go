package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ki2helper/panel-api/internal/config"
	"github.com/ki2helper/panel-api/internal/models"
)

// TokenManager issues and validates the signed access and refresh tokens.
// Access and refresh tokens use separate secrets; the signing algorithm is
// fixed at process configuration. Tokens are stateless, validity is decided
// purely by signature and expiry at verification time.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	method        jwt.SigningMethod
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a TokenManager from the auth configuration.
func NewTokenManager(cfg *config.AuthConfig) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		method:        jwt.GetSigningMethod(cfg.SigningAlg),
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
	}
}

// GenerateAccessToken signs an access token carrying the subject id and the
// cached profile fields. Access tokens always embed an expiry.
func (tm *TokenManager) GenerateAccessToken(profile *models.Profile) (string, error) {
	now := time.Now()
	claims := &models.AccessClaims{
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(profile.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(tm.method, claims).SignedString(tm.accessSecret)
}

// GenerateRefreshToken signs a refresh token carrying only the subject id.
func (tm *TokenManager) GenerateRefreshToken(userID int64) (string, error) {
	now := time.Now()
	claims := &models.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(tm.method, claims).SignedString(tm.refreshSecret)
}

// ValidateAccessToken verifies signature and expiry. Every failure collapses
// to models.ErrUnauthorized; nothing more specific crosses this boundary.
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, tm.keyFunc(tm.accessSecret),
		jwt.WithValidMethods([]string{tm.method.Alg()}))
	if err != nil || !token.Valid {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}

// ValidateRefreshToken verifies a refresh token and returns its subject id.
func (tm *TokenManager) ValidateRefreshToken(tokenString string) (int64, error) {
	claims := &models.RefreshClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, tm.keyFunc(tm.refreshSecret),
		jwt.WithValidMethods([]string{tm.method.Alg()}))
	if err != nil || !token.Valid {
		return 0, models.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, models.ErrUnauthorized
	}

	return userID, nil
}

func (tm *TokenManager) keyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrUnauthorized
		}
		return secret, nil
	}
}
