package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ki2helper/panel-api/internal/models"
	pkghttp "github.com/ki2helper/panel-api/pkg/http"
)

// AdminDirectory is the slice of the admin repository the handlers need.
type AdminDirectory interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Admin, error)
	DeleteManager(ctx context.Context, id string) (int64, error)
	BulkDeleteManagers(ctx context.Context, ids []string) (int64, error)
}

// AdminHandler serves admin management endpoints.
type AdminHandler struct {
	admins AdminDirectory
}

func NewAdminHandler(admins AdminDirectory) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// HasRights reports whether the given Telegram user id belongs to an admin.
func (h *AdminHandler) HasRights(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		pkghttp.WriteBadRequest(w, "user_id must be an integer")
		return
	}

	if _, err := h.admins.GetByUserID(r.Context(), userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"result": false})
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"result": true})
}

// DeleteManager removes a manager. Supers are not deletable through this
// endpoint; attempting it reads the same as a missing record.
func (h *AdminHandler) DeleteManager(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.admins.DeleteManager(r.Context(), id)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	if deleted == 0 {
		pkghttp.WriteNotFound(w, fmt.Sprintf("Manager with ID %s not found or it was super", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete removes the managers among the given ids; 404 only when none
// of them matched.
func (h *AdminHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req models.BulkDelete
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deleted, err := h.admins.BulkDeleteManagers(r.Context(), req.IDs)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	if deleted == 0 {
		pkghttp.WriteNotFound(w, "No managers found for the given IDs")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
