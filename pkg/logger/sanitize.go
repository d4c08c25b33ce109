package logger

import "strings"

// SanitizeQueryString checks if a query string contains sensitive parameters
// and returns true if the entire query string should be redacted. Magic-link
// URLs carry the OTP and attempt id as query parameters, so anything that
// looks credential-shaped redacts the whole string.
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"otp",
		"hash_",
		"token",
		"secret",
		"auth",
		"password",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
