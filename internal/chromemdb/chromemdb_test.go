package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markdown-rag/internal/vector"
)

func record(id string, embedding []float32) vector.Record {
	return vector.Record{
		ID:        id,
		Content:   "content of " + id,
		Embedding: embedding,
		Metadata:  map[string]string{"source": id + ".md"},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New("", "test_collection") // in-memory
	require.NoError(t, err)
	return store
}

func TestUpsertAndCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.Upsert(ctx, []vector.Record{
		record("a-0", []float32{1, 0, 0}),
		record("a-1", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	records := []vector.Record{
		record("a-0", []float32{1, 0, 0}),
		record("a-1", []float32{0, 1, 0}),
	}
	require.NoError(t, store.Upsert(ctx, records))
	require.NoError(t, store.Upsert(ctx, records)) // same IDs again

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsert_OverwritesContent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []vector.Record{record("a-0", []float32{1, 0, 0})}))

	updated := record("a-0", []float32{1, 0, 0})
	updated.Content = "revised content"
	require.NoError(t, store.Upsert(ctx, []vector.Record{updated}))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "revised content", results[0].Content)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []vector.Record{record("a-0", []float32{1, 0, 0})}))

	err := store.Upsert(ctx, []vector.Record{record("b-0", []float32{1, 0})})
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []vector.Record{
		record("a-0", []float32{1, 0, 0}),
		record("a-1", []float32{0, 1, 0}),
		record("a-2", []float32{0, 0, 1}),
	}))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a-0", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Similarity), 1e-4)
	assert.Equal(t, "a-0.md", results[0].Metadata["source"])
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

func TestSearch_ClampsKToCollectionSize(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []vector.Record{record("a-0", []float32{1, 0, 0})}))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	results, err := store.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNew_PersistentReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(dir, "test_collection")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []vector.Record{record("a-0", []float32{1, 0, 0})}))
	require.NoError(t, store.Close())

	reopened, err := New(dir, "test_collection")
	require.NoError(t, err)
	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
