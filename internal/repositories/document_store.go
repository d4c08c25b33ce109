package repositories

import (
	"context"
	"encoding/json"
	"time"
)

// DocumentStore is the slice of the document store the repositories rely
// on. *store.Store satisfies it; tests substitute an in-memory fake.
type DocumentStore interface {
	InsertOne(ctx context.Context, collection, id string, doc interface{}) error
	FindOne(ctx context.Context, collection, id string) (json.RawMessage, error)
	FindOneBy(ctx context.Context, collection string, filter map[string]interface{}) (json.RawMessage, error)
	FindAll(ctx context.Context, collection string, limit int) ([]json.RawMessage, error)
	UpdateOne(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error)
	DeleteOne(ctx context.Context, collection, id string) (int64, error)
	DeleteOneBy(ctx context.Context, collection, id string, filter map[string]interface{}) (int64, error)
	DeleteMany(ctx context.Context, collection string, ids []string, filter map[string]interface{}) (int64, error)
	DeleteManyBy(ctx context.Context, collection string, filter map[string]interface{}) (int64, error)
	DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error)
}
