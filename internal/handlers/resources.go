package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/store"
	pkghttp "github.com/ki2helper/panel-api/pkg/http"
)

// ResourceStore is the data access surface the resource endpoints rely on.
type ResourceStore interface {
	List(ctx context.Context, collection string, limit int) ([]json.RawMessage, error)
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Create(ctx context.Context, collection, id string, doc interface{}) error
	Patch(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error)
	Delete(ctx context.Context, collection, id string) (int64, error)
	BulkDelete(ctx context.Context, collection string, ids []string) (int64, error)
}

// Resource describes one collection exposed through the shared CRUD
// endpoints. NewDoc returns a fresh typed document used for create-time
// validation; PatchFields whitelists what PATCH may touch.
type Resource struct {
	Name        string
	Title       string
	Collection  string
	NewDoc      func() interface{}
	PatchFields []string
	ListLimit   int
}

// Resources returns the registry of collections served by the panel.
func Resources() []Resource {
	return []Resource{
		{
			Name:        "birthdays",
			Title:       "Birthday",
			Collection:  store.CollectionBirthdays,
			NewDoc:      func() interface{} { return &models.Birthday{} },
			PatchFields: []string{"student_name", "date"},
		},
		{
			Name:        "lessons",
			Title:       "Lesson",
			Collection:  store.CollectionLessons,
			NewDoc:      func() interface{} { return &models.Lesson{} },
			PatchFields: []string{"name", "short_name", "type", "teacher", "zoom"},
		},
		{
			Name:        "playlists",
			Title:       "Playlist",
			Collection:  store.CollectionPlaylists,
			NewDoc:      func() interface{} { return &models.Playlist{} },
			PatchFields: []string{"link"},
		},
		{
			Name:        "schedule",
			Title:       "Schedule",
			Collection:  store.CollectionSchedules,
			NewDoc:      func() interface{} { return &models.Schedule{} },
			PatchFields: []string{"day", "day_number", "items"},
		},
		{
			Name:        "teachers",
			Title:       "Teacher",
			Collection:  store.CollectionTeachers,
			NewDoc:      func() interface{} { return &models.Teacher{} },
			PatchFields: []string{"name"},
		},
		{
			Name:        "timetable",
			Title:       "Timetable",
			Collection:  store.CollectionTimetable,
			NewDoc:      func() interface{} { return &models.Timetable{} },
			PatchFields: []string{"items"},
		},
		{
			// The panel tracks a single week-parity document.
			Name:        "week",
			Title:       "Week",
			Collection:  store.CollectionWeeks,
			NewDoc:      func() interface{} { return &models.Week{} },
			PatchFields: []string{"type"},
			ListLimit:   1,
		},
		{
			Name:        "cron",
			Title:       "Cron",
			Collection:  store.CollectionCron,
			NewDoc:      func() interface{} { return &models.Cron{} },
			PatchFields: []string{"run", "jobs"},
		},
	}
}

// ResourceHandler serves the shared CRUD endpoints for every registered
// collection.
type ResourceHandler struct {
	store  ResourceStore
	logger *slog.Logger
}

func NewResourceHandler(s ResourceStore, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{store: s, logger: logger}
}

// Mount registers the endpoints for every resource. Reads are open;
// mutations go through the authorized middleware.
func (h *ResourceHandler) Mount(r chi.Router, resources []Resource, authorized func(http.Handler) http.Handler) {
	for _, res := range resources {
		res := res
		r.Route("/"+res.Name, func(r chi.Router) {
			r.Get("/", h.list(res))
			r.Get("/{id}", h.get(res))

			r.Group(func(r chi.Router) {
				r.Use(authorized)
				r.Post("/", h.create(res))
				r.Patch("/{id}", h.patch(res))
				r.Delete("/{id}", h.delete(res))
				r.Post("/bulk-delete", h.bulkDelete(res))
			})
		})
	}
}

func (h *ResourceHandler) list(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.store.List(r.Context(), res.Collection, res.ListLimit)
		if err != nil {
			h.logger.Error("failed to list documents",
				slog.String("collection", res.Collection), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, docs)
	}
}

func (h *ResourceHandler) get(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doc, err := h.store.Get(r.Context(), res.Collection, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				pkghttp.WriteNotFound(w, fmt.Sprintf("%s with ID %s not found", res.Title, id))
				return
			}
			h.logger.Error("failed to get document",
				slog.String("collection", res.Collection), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, doc)
	}
}

// create validates the body against the resource's typed document, assigns
// a fresh id and echoes the stored document back.
func (h *ResourceHandler) create(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := res.NewDoc()
		if !decodeAndValidate(w, r, doc) {
			return
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}

		var stored map[string]interface{}
		if err := json.Unmarshal(raw, &stored); err != nil {
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
		stored["_id"] = uuid.New().String()

		if err := h.store.Create(r.Context(), res.Collection, stored["_id"].(string), stored); err != nil {
			if errors.Is(err, models.ErrConflict) {
				pkghttp.WriteConflict(w, fmt.Sprintf("%s already exists", res.Title))
				return
			}
			h.logger.Error("failed to create document",
				slog.String("collection", res.Collection), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}

		pkghttp.WriteJSON(w, http.StatusCreated, stored)
	}
}

// patch merges the non-null whitelisted fields into the document.
func (h *ResourceHandler) patch(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		defer r.Body.Close()
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}

		fields := make(map[string]interface{})
		for _, name := range res.PatchFields {
			if value, ok := body[name]; ok && value != nil {
				fields[name] = value
			}
		}
		if len(fields) == 0 {
			pkghttp.WriteUnprocessable(w, "No updatable fields in request")
			return
		}

		matched, err := h.store.Patch(r.Context(), res.Collection, id, fields)
		if err != nil {
			h.logger.Error("failed to patch document",
				slog.String("collection", res.Collection), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
		if !matched {
			pkghttp.WriteNotFound(w, fmt.Sprintf("%s with ID %s not found", res.Title, id))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ResourceHandler) delete(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		deleted, err := h.store.Delete(r.Context(), res.Collection, id)
		if err != nil {
			h.logger.Error("failed to delete document",
				slog.String("collection", res.Collection), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
		if deleted == 0 {
			pkghttp.WriteNotFound(w, fmt.Sprintf("%s with ID %s not found", res.Title, id))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// bulkDelete removes the given ids; 404 only when none of them existed.
func (h *ResourceHandler) bulkDelete(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.BulkDelete
		if !decodeAndValidate(w, r, &req) {
			return
		}

		deleted, err := h.store.BulkDelete(r.Context(), res.Collection, req.IDs)
		if err != nil {
			h.logger.Error("failed to bulk delete documents",
				slog.String("collection", res.Collection), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
		if deleted == 0 {
			pkghttp.WriteNotFound(w, fmt.Sprintf("No %s documents found for the given IDs", res.Title))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
