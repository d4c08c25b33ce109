package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the signed claim set carried by access tokens. Subject is
// the admin's user id rendered as a decimal string; the profile fields are
// cached from Telegram at issuance time.
type AccessClaims struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// RefreshClaims is the minimal claim set carried by refresh tokens.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Profile is the panel user as returned by auth and profile endpoints.
// Pic is either a data URI built from the Telegram avatar or the default
// avatar asset path.
type Profile struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Pic       string `json:"pic"`
}
