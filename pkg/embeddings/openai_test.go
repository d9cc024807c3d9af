package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingDatum mirrors the per-vector shape of an OpenAI embeddings
// response, enough for the SDK to unmarshal chunked/reordered data out of.
type embeddingDatum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingsResponse struct {
	Object string           `json:"object"`
	Data   []embeddingDatum `json:"data"`
	Model  string           `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// reversingServer returns one embedding per input but in reverse index
// order, so tests can confirm the provider reassembles by Index rather
// than by response order.
func reversingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.EmbeddingRequestStrings
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := embeddingsResponse{Object: "list", Model: string(req.Model)}
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dim)
			for j := range vec {
				vec[j] = float32(i + 1)
			}
			resp.Data = append(resp.Data, embeddingDatum{Object: "embedding", Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEmbedBatchReassemblesByIndexNotResponseOrder(t *testing.T) {
	srv := reversingServer(t, 3)
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "text-embedding-3-small", 3, srv.URL+"/v1")
	out, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, []float32{1, 1, 1}, out[0])
	assert.Equal(t, []float32{2, 2, 2}, out[1])
	assert.Equal(t, []float32{3, 3, 3}, out[2])
}

func TestEmbedBatchChunksAtCeiling(t *testing.T) {
	var chunkSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.EmbeddingRequestStrings
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		chunkSizes = append(chunkSizes, len(req.Input))

		resp := embeddingsResponse{Object: "list", Model: string(req.Model)}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingDatum{Object: "embedding", Embedding: []float32{0, 0}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "text-embedding-3-small", 2, srv.URL+"/v1")
	texts := make([]string, batchCeiling+10)
	for i := range texts {
		texts[i] = "x"
	}

	out, err := p.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, out, batchCeiling+10)
	assert.Equal(t, []int{batchCeiling, 10}, chunkSizes)
}

func TestEmbedSingleDelegatesToBatch(t *testing.T) {
	srv := reversingServer(t, 2)
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "text-embedding-3-small", 2, srv.URL+"/v1")
	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, vec)
}

func TestEmbedBatchRejectsWrongDimension(t *testing.T) {
	srv := reversingServer(t, 5)
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "text-embedding-3-small", 3, srv.URL+"/v1")
	_, err := p.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
}

func TestDimensionsReturnsConfiguredValue(t *testing.T) {
	p := NewOpenAIProvider("test-key", "text-embedding-3-large", 3072, "")
	assert.Equal(t, 3072, p.Dimensions())
}
