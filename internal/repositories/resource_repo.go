package repositories

import (
	"context"
	"encoding/json"

	"github.com/ki2helper/panel-api/internal/store"
)

// ResourceRepository is the shared data access layer for the schedule
// resources (birthdays, lessons, playlists and the rest). Documents pass
// through as raw JSON; shape enforcement happens at the handler layer.
type ResourceRepository struct {
	store DocumentStore
}

func NewResourceRepository(s DocumentStore) *ResourceRepository {
	return &ResourceRepository{store: s}
}

func (r *ResourceRepository) List(ctx context.Context, collection string, limit int) ([]json.RawMessage, error) {
	return r.store.FindAll(ctx, collection, limit)
}

func (r *ResourceRepository) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	return r.store.FindOne(ctx, collection, id)
}

func (r *ResourceRepository) Create(ctx context.Context, collection, id string, doc interface{}) error {
	return r.store.InsertOne(ctx, collection, id, doc)
}

// Patch merges non-null fields into the document and reports whether it
// exists.
func (r *ResourceRepository) Patch(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error) {
	return r.store.UpdateOne(ctx, collection, id, fields)
}

func (r *ResourceRepository) Delete(ctx context.Context, collection, id string) (int64, error) {
	return r.store.DeleteOne(ctx, collection, id)
}

func (r *ResourceRepository) BulkDelete(ctx context.Context, collection string, ids []string) (int64, error) {
	return r.store.DeleteMany(ctx, collection, ids, nil)
}

var _ DocumentStore = (*store.Store)(nil)
