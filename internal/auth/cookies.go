package auth

import (
	"net/http"
	"time"
)

// Cookie names used by the panel frontend
const (
	AccessTokenCookie  = "AUTH"
	RefreshTokenCookie = "REFRESH_TOKEN"
)

// SetAuthCookies sets the access and refresh tokens as http-only cookies.
// SameSite=None because the panel frontend is served from a different
// origin than the API.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessMaxAge, refreshMaxAge time.Duration) {
	http.SetCookie(w, authCookie(AccessTokenCookie, accessToken, int(accessMaxAge.Seconds())))
	http.SetCookie(w, authCookie(RefreshTokenCookie, refreshToken, int(refreshMaxAge.Seconds())))
}

// ClearAuthCookies removes both auth cookies.
func ClearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, authCookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, authCookie(RefreshTokenCookie, "", -1))
}

// GetRefreshTokenCookie retrieves the refresh token from the request.
func GetRefreshTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func authCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
