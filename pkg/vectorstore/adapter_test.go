package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmem/recall/pkg/vectorstore"
)

// adapters returns one fresh instance of each Storer implementation
// under test. Per spec §8, the adapter test suite runs against both the
// in-memory and at least one SQL-backed adapter with identical
// expectations.
func adapters(t *testing.T) map[string]vectorstore.Storer {
	t.Helper()
	sqlStore, err := vectorstore.NewSQLiteStore(":memory:", 3)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]vectorstore.Storer{
		"mem": vectorstore.NewMemStore(3),
		"sql": sqlStore,
	}
}

func TestAdapterInsertGetRoundTrip(t *testing.T) {
	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m, err := store.Insert(ctx, "tenant-a", "hello", []float32{1, 0, 0}, map[string]string{"k": "v"})
			require.NoError(t, err)
			assert.NotEmpty(t, m.ID)

			got, err := store.Get(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, "hello", got.Content)
			assert.Equal(t, "tenant-a", got.Tenant)
			assert.Equal(t, []float32{1, 0, 0}, got.Embedding)
			assert.Equal(t, "v", got.Metadata["k"])
		})
	}
}

func TestAdapterTenantIsolation(t *testing.T) {
	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Insert(ctx, "tenant-a", "a-fact", []float32{1, 0, 0}, nil)
			require.NoError(t, err)
			_, err = store.Insert(ctx, "tenant-b", "b-fact", []float32{1, 0, 0}, nil)
			require.NoError(t, err)

			resA, err := store.List(ctx, "tenant-a", vectorstore.ListOptions{Limit: 10})
			require.NoError(t, err)
			require.Len(t, resA, 1)
			assert.Equal(t, "a-fact", resA[0].Content)

			kA, err := store.QueryByEmbedding(ctx, []float32{1, 0, 0}, "tenant-a", 10)
			require.NoError(t, err)
			for _, m := range kA {
				assert.Equal(t, "tenant-a", m.Tenant)
			}
		})
	}
}

func TestAdapterKNNOrdering(t *testing.T) {
	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			// Vectors at increasing angle from the query (1,0,0).
			_, err := store.Insert(ctx, "t", "same", []float32{1, 0, 0}, nil)
			require.NoError(t, err)
			_, err = store.Insert(ctx, "t", "close", []float32{0.9, 0.1, 0}, nil)
			require.NoError(t, err)
			_, err = store.Insert(ctx, "t", "orthogonal", []float32{0, 1, 0}, nil)
			require.NoError(t, err)
			_, err = store.Insert(ctx, "t", "opposite", []float32{-1, 0, 0}, nil)
			require.NoError(t, err)

			results, err := store.QueryByEmbedding(ctx, []float32{1, 0, 0}, "t", 4)
			require.NoError(t, err)
			require.Len(t, results, 4)

			order := make([]string, len(results))
			for i, m := range results {
				order[i] = m.Content
			}
			assert.Equal(t, []string{"same", "close", "orthogonal", "opposite"}, order)
		})
	}
}

func TestAdapterUpdateAndDelete(t *testing.T) {
	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m, err := store.Insert(ctx, "t", "original", []float32{1, 0, 0}, nil)
			require.NoError(t, err)

			newContent := "revised"
			updated, err := store.Update(ctx, m.ID, vectorstore.Update{Content: &newContent})
			require.NoError(t, err)
			assert.Equal(t, "revised", updated.Content)
			assert.GreaterOrEqual(t, updated.UpdatedAt, updated.CreatedAt)

			require.NoError(t, store.Delete(ctx, m.ID))
			got, err := store.Get(ctx, m.ID)
			require.NoError(t, err)
			assert.Nil(t, got)

			_, err = store.Update(ctx, m.ID, vectorstore.Update{Content: &newContent})
			assert.ErrorIs(t, err, vectorstore.ErrMemoryNotFound)
		})
	}
}

func TestAdapterCountAndClear(t *testing.T) {
	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				_, err := store.Insert(ctx, "t", "fact", []float32{1, 0, 0}, nil)
				require.NoError(t, err)
			}
			n, err := store.Count(ctx, "t")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, store.Clear(ctx, "t"))
			n, err = store.Count(ctx, "t")
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestAdapterDimensionMismatchRejected(t *testing.T) {
	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Insert(ctx, "t", "bad", []float32{1, 0}, nil)
			assert.Error(t, err)
		})
	}
}
