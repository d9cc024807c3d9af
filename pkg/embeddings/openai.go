package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// batchCeiling caps how many inputs go into a single embeddings request.
// OpenAI accepts larger batches; chunking keeps individual requests small.
// Chunks are not retried: a failed chunk fails the whole EmbedBatch call.
const batchCeiling = 96

// OpenAIProvider embeds text via the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
}

// NewOpenAIProvider builds a provider for the given model. dim must match
// the model's actual output dimension; the provider does not infer it.
// baseURL may be empty to use the default OpenAI endpoint, or set to point
// at a compatible gateway.
func NewOpenAIProvider(apiKey string, model openai.EmbeddingModel, dim int, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dim:    dim,
	}
}

func (p *OpenAIProvider) Dimensions() int { return p.dim }

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchCeiling {
		end := start + batchCeiling
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := p.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embeddings: chunk [%d:%d]: %w", start, end, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (p *OpenAIProvider) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: provider returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embeddings: out-of-range index %d in response", d.Index)
		}
		if len(d.Embedding) != p.dim {
			return nil, fmt.Errorf("embeddings: got %d-dim vector, provider configured for %d", len(d.Embedding), p.dim)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
