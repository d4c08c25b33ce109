package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/store"
)

func TestStore_ContainmentLookups(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.TruncateDocuments(ctx))

	doc := map[string]interface{}{"_id": "a1", "user_id": int64(42), "username": "taras", "role": "manager"}
	require.NoError(t, testDB.Store.InsertOne(ctx, store.CollectionAdmins, "a1", doc))

	raw, err := testDB.Store.FindOneBy(ctx, store.CollectionAdmins, map[string]interface{}{"user_id": int64(42)})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"username": "taras"`)

	_, err = testDB.Store.FindOneBy(ctx, store.CollectionAdmins, map[string]interface{}{"user_id": int64(7)})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_DuplicateIDConflicts(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.TruncateDocuments(ctx))

	doc := map[string]interface{}{"_id": "x1"}
	require.NoError(t, testDB.Store.InsertOne(ctx, store.CollectionLessons, "x1", doc))

	err := testDB.Store.InsertOne(ctx, store.CollectionLessons, "x1", doc)
	assert.ErrorIs(t, err, models.ErrConflict)

	// Same id in another collection is fine
	assert.NoError(t, testDB.Store.InsertOne(ctx, store.CollectionTeachers, "x1", doc))
}

func TestStore_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.TruncateDocuments(ctx))

	doc := map[string]interface{}{"_id": "l1", "name": "ООП", "zoom": "https://zoom.example/1"}
	require.NoError(t, testDB.Store.InsertOne(ctx, store.CollectionLessons, "l1", doc))

	matched, err := testDB.Store.UpdateOne(ctx, store.CollectionLessons, "l1",
		map[string]interface{}{"name": "Бази даних"})
	require.NoError(t, err)
	assert.True(t, matched)

	raw, err := testDB.Store.FindOne(ctx, store.CollectionLessons, "l1")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Бази даних", got["name"])
	assert.Equal(t, "https://zoom.example/1", got["zoom"], "untouched fields survive the merge")

	matched, err = testDB.Store.UpdateOne(ctx, store.CollectionLessons, "missing",
		map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestStore_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.TruncateDocuments(ctx))

	require.NoError(t, testDB.Store.InsertOne(ctx, store.CollectionLoginAttempts, "old",
		map[string]interface{}{"_id": "old"}))

	deleted, err := testDB.Store.DeleteOlderThan(ctx, store.CollectionLoginAttempts, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted, "fresh rows survive")

	deleted, err = testDB.Store.DeleteOlderThan(ctx, store.CollectionLoginAttempts, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
