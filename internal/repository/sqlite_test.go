package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/internal/entity"
)

func newSQLiteStore(t *testing.T) *SQLiteLaborers {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "docintel.db"), nil)
	require.NoError(t, err)
	store := NewSQLiteLaborers(db, nil)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteLaborers_MergeKeepsUntouchedFields(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Put(ctx, "u1", "l1", entity.Document{
		"displayName": "Existing Name",
		"w9OcrError":  "old failure",
		"w9Info": map[string]any{
			"legalName": "Jane Doe",
			"city":      "Austin",
		},
	}))

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Merge(ctx, "u1", "l1", Patch{
		"w9OcrStatus":        "needs_review",
		"w9OcrError":         nil,
		"w9Info.needsReview": true,
		"w9Info.updatedAt":   now,
	}))

	doc, err := store.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, "Existing Name", doc["displayName"])
	assert.Equal(t, "needs_review", doc["w9OcrStatus"])
	assert.NotContains(t, doc, "w9OcrError")

	info := doc["w9Info"].(map[string]any)
	assert.Equal(t, "Jane Doe", info["legalName"])
	assert.Equal(t, "Austin", info["city"])
	assert.Equal(t, true, info["needsReview"])
	assert.Equal(t, "2026-01-02T03:04:05Z", info["updatedAt"])
}

func TestSQLiteLaborers_MergeMissingRecord(t *testing.T) {
	store := newSQLiteStore(t)
	err := store.Merge(context.Background(), "u1", "ghost", Patch{"w9OcrStatus": "processing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(context.Background(), "u1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteLaborers_ListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	require.NoError(t, store.Put(ctx, "u1", "b", entity.Document{"w9OcrStatus": "failed", "w9OcrError": "OCR quota exceeded."}))
	require.NoError(t, store.Put(ctx, "u1", "a", entity.Document{"w9OcrStatus": "needs_review", "displayName": "Ann"}))
	require.NoError(t, store.Put(ctx, "u1", "c", entity.Document{"w9OcrStatus": "complete"}))
	require.NoError(t, store.Put(ctx, "u2", "d", entity.Document{"w9OcrStatus": "failed"}))

	recs, err := store.List(ctx, "u1", "needs_review", "failed")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].LaborerID)
	assert.Equal(t, "Ann", recs[0].DisplayName)
	assert.Equal(t, "b", recs[1].LaborerID)
	assert.Equal(t, "OCR quota exceeded.", recs[1].OcrError)
	assert.False(t, recs[1].UpdatedAt.IsZero())

	all, err := store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
