package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ki2helper/panel-api/internal/models"
)

func adminRouter(h *AdminHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/admins/has-rights/{user_id}", h.HasRights)
	r.Delete("/admins/{id}", h.DeleteManager)
	r.Post("/admins/bulk-delete", h.BulkDelete)
	return r
}

func TestHasRights(t *testing.T) {
	admins := &mockAdminDirectory{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*models.Admin, error) {
			if userID == 42 {
				return &models.Admin{ID: "a1", UserID: 42}, nil
			}
			return nil, models.ErrNotFound
		},
	}
	router := adminRouter(NewAdminHandler(admins))

	t.Run("admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admins/has-rights/42", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"result":true`)
	})

	t.Run("not an admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admins/has-rights/7", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"result":false`)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admins/has-rights/abc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteManager(t *testing.T) {
	admins := &mockAdminDirectory{
		DeleteManagerFunc: func(ctx context.Context, id string) (int64, error) {
			if id == "m1" {
				return 1, nil
			}
			return 0, nil
		},
	}
	router := adminRouter(NewAdminHandler(admins))

	t.Run("manager deleted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admins/m1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing or super", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admins/s1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Manager with ID s1 not found or it was super")
	})
}

func TestBulkDeleteAdmins(t *testing.T) {
	admins := &mockAdminDirectory{
		BulkDeleteManagersFunc: func(ctx context.Context, ids []string) (int64, error) {
			if len(ids) == 2 {
				return 1, nil
			}
			return 0, nil
		},
	}
	router := adminRouter(NewAdminHandler(admins))

	t.Run("partial match is enough", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admins/bulk-delete",
			strings.NewReader(`{"ids":["m1","s1"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("nothing matched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admins/bulk-delete",
			strings.NewReader(`{"ids":["x1"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty ids rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admins/bulk-delete",
			strings.NewReader(`{"ids":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
