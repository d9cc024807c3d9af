package memory

import (
	"context"
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmem/recall/pkg/facts"
	"github.com/recallmem/recall/pkg/vectorstore"
)

// stubEmbedder is a deterministic, LLM-free stand-in for
// embeddings.Provider: same text always hashes to the same 3-dim vector,
// which is enough to exercise the store/cosine plumbing without a real
// API call.
type stubEmbedder struct{}

func (stubEmbedder) Dimensions() int { return 3 }

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := sha1.Sum([]byte(text))
	return []float32{
		float32(sum[0]) / 255,
		float32(sum[1]) / 255,
		float32(sum[2]) / 255,
	}, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newTestClient() *Client {
	store := vectorstore.NewMemStore(3)
	return New(store, stubEmbedder{}, facts.NewService(nil))
}

func TestExtractUnconfiguredServiceYieldsNoFacts(t *testing.T) {
	c := newTestClient()
	memories, err := c.Extract(context.Background(), "User works at Google", ExtractOptions{Tenant: "t"})
	require.NoError(t, err)
	// facts.NewService(nil) is unconfigured: Extract always returns an
	// empty result, so nothing reaches the store.
	assert.Empty(t, memories)
}

func TestUpdateReembedsOnlyWhenContentChanges(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	m, err := c.store.Insert(ctx, "t", "original content", []float32{1, 0, 0}, nil)
	require.NoError(t, err)

	metaOnly := map[string]string{"k": "v"}
	updated, err := c.Update(ctx, m.ID, nil, metaOnly)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, updated.Embedding)
	assert.Equal(t, "v", updated.Metadata["k"])

	newContent := "revised content"
	updated, err = c.Update(ctx, m.ID, &newContent, nil)
	require.NoError(t, err)
	assert.Equal(t, "revised content", updated.Content)
	assert.NotEqual(t, []float32{1, 0, 0}, updated.Embedding)
}

func TestQueryThresholdFiltersLowSimilarity(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	_, err := c.store.Insert(ctx, "t", "alpha", []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	_, err = c.store.Insert(ctx, "t", "beta", []float32{0, 1, 0}, nil)
	require.NoError(t, err)

	threshold := 0.99
	results, err := c.Query(ctx, "query text", QueryOptions{Tenant: "t", Limit: 10, Threshold: &threshold})
	require.NoError(t, err)
	for _, m := range results {
		sim := cosineSimilarity(stubMustEmbed(t, "query text"), m.Embedding)
		assert.GreaterOrEqual(t, sim, threshold)
	}
}

func stubMustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	v, err := (stubEmbedder{}).Embed(context.Background(), text)
	require.NoError(t, err)
	return v
}
