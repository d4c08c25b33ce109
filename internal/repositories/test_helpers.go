package repositories

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/ki2helper/panel-api/internal/models"
)

// fakeStore is an in-memory DocumentStore with the same containment
// semantics as the real one.
type fakeStore struct {
	mu   sync.Mutex
	docs map[string][]fakeDoc
}

type fakeDoc struct {
	id        string
	raw       json.RawMessage
	createdAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]fakeDoc)}
}

func (f *fakeStore) InsertOne(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, d := range f.docs[collection] {
		if d.id == id {
			return models.ErrConflict
		}
	}
	f.docs[collection] = append(f.docs[collection], fakeDoc{id: id, raw: raw, createdAt: time.Now().UTC()})
	return nil
}

func (f *fakeStore) FindOne(ctx context.Context, collection, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, d := range f.docs[collection] {
		if d.id == id {
			return d.raw, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) FindOneBy(ctx context.Context, collection string, filter map[string]interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, d := range f.docs[collection] {
		if contains(d.raw, filter) {
			return d.raw, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) FindAll(ctx context.Context, collection string, limit int) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]json.RawMessage, 0)
	for _, d := range f.docs[collection] {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, d.raw)
	}
	return out, nil
}

func (f *fakeStore) UpdateOne(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, d := range f.docs[collection] {
		if d.id != id {
			continue
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(d.raw, &doc); err != nil {
			return false, err
		}
		for k, v := range fields {
			doc[k] = v
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return false, err
		}
		f.docs[collection][i].raw = raw
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) DeleteOne(ctx context.Context, collection, id string) (int64, error) {
	return f.deleteWhere(collection, func(d fakeDoc) bool { return d.id == id })
}

func (f *fakeStore) DeleteOneBy(ctx context.Context, collection, id string, filter map[string]interface{}) (int64, error) {
	return f.deleteWhere(collection, func(d fakeDoc) bool {
		return d.id == id && contains(d.raw, filter)
	})
}

func (f *fakeStore) DeleteMany(ctx context.Context, collection string, ids []string, filter map[string]interface{}) (int64, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	return f.deleteWhere(collection, func(d fakeDoc) bool {
		return idSet[d.id] && (len(filter) == 0 || contains(d.raw, filter))
	})
}

func (f *fakeStore) DeleteManyBy(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	return f.deleteWhere(collection, func(d fakeDoc) bool { return contains(d.raw, filter) })
}

func (f *fakeStore) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	return f.deleteWhere(collection, func(d fakeDoc) bool { return d.createdAt.Before(cutoff) })
}

func (f *fakeStore) deleteWhere(collection string, match func(fakeDoc) bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := make([]fakeDoc, 0, len(f.docs[collection]))
	var deleted int64
	for _, d := range f.docs[collection] {
		if match(d) {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	f.docs[collection] = kept
	return deleted, nil
}

// contains mimics JSONB containment for flat field filters.
func contains(raw json.RawMessage, filter map[string]interface{}) bool {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}

	normalized, err := json.Marshal(filter)
	if err != nil {
		return false
	}
	var want map[string]interface{}
	if err := json.Unmarshal(normalized, &want); err != nil {
		return false
	}

	for k, v := range want {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}
