package handlers

import (
	"context"
	"net/http"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/models"
	pkghttp "github.com/ki2helper/panel-api/pkg/http"
)

// ProfileProvider builds the profile response for an authenticated subject.
type ProfileProvider interface {
	ProfileFor(ctx context.Context, claims *models.AccessClaims) (*models.Profile, error)
}

// ProfileHandler serves the authenticated user's profile.
type ProfileHandler struct {
	profiles ProfileProvider
}

func NewProfileHandler(profiles ProfileProvider) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the subject's profile from the token claims plus a freshly
// resolved avatar.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	profile, err := h.profiles.ProfileFor(r.Context(), claims)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}
