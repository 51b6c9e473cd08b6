// File: internal/store/memory_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

func testRecord(id, pattern string, version int) *schemas.PageBindings {
	return &schemas.PageBindings{
		ID:             id,
		URLPattern:     pattern,
		Version:        version,
		UpdatedAt:      time.Now().UTC(),
		List:           "ul.results",
		ListItem:       "ul.results > li",
		DetailsContent: []string{".details"},
		ItemID:         schemas.ItemIDExtractor{From: schemas.IDFromHref},
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	rec := testRecord("b-1", "example.com", 1)
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "ul.results > li", got.ListItem)

	// The stored record must be isolated from caller mutations.
	got.ListItem = "mutated"
	again, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "ul.results > li", again.ListItem)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	require.NoError(t, s.Put(ctx, testRecord("b-1", "example.com", 3)))

	err := s.Put(ctx, testRecord("b-1", "example.com", 3))
	assert.ErrorIs(t, err, ErrVersionConflict, "same version must be rejected")

	err = s.Put(ctx, testRecord("b-1", "example.com", 2))
	assert.ErrorIs(t, err, ErrVersionConflict, "older version must be rejected")

	require.NoError(t, s.Put(ctx, testRecord("b-1", "example.com", 4)))
	got, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Version)
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	old := testRecord("b-old", "linkedin.com", 1)
	old.UpdatedAt = time.Now().Add(-time.Hour)
	fresh := testRecord("b-new", "linkedin.com", 1)
	require.NoError(t, s.Put(ctx, old))
	require.NoError(t, s.Put(ctx, fresh))

	got, err := s.Query(ctx, "www.linkedin.com")
	require.NoError(t, err, "stored pattern must match as hostname substring")
	assert.Equal(t, "b-new", got.ID, "freshest match wins")

	got, err = s.Query(ctx, "WWW.LINKEDIN.COM")
	require.NoError(t, err, "matching is case-insensitive")
	assert.Equal(t, "b-new", got.ID)

	_, err = s.Query(ctx, "greenhouse.io")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	old := testRecord("b-old", "linkedin.com", 1)
	old.UpdatedAt = time.Now().Add(-time.Hour)
	fresh := testRecord("b-new", "indeed.com", 2)
	require.NoError(t, s.Put(ctx, old))
	require.NoError(t, s.Put(ctx, fresh))

	records, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b-new", records[0].ID, "freshest record first")
	assert.Equal(t, "b-old", records[1].ID)

	// Listed records must be isolated from caller mutations.
	records[0].ListItem = "mutated"
	got, err := s.Get(ctx, "b-new")
	require.NoError(t, err)
	assert.Equal(t, "ul.results > li", got.ListItem)
}

func TestMemoryStoreClearPattern(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	require.NoError(t, s.Put(ctx, testRecord("b-1", "linkedin.com", 1)))
	require.NoError(t, s.Put(ctx, testRecord("b-2", "indeed.com", 1)))

	require.NoError(t, s.ClearPattern(ctx, "linkedin"))
	_, err := s.Get(ctx, "b-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "b-2")
	assert.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, "b-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
