// Package embeddings defines the text-to-vector contract used by the
// unstructured memory pipeline and its concrete OpenAI-backed provider.
package embeddings

import "context"

// Provider turns text into fixed-length vectors. Implementations must
// return vectors of exactly Dimensions() length for every call.
type Provider interface {
	// Dimensions is the fixed length of every vector this provider returns.
	Dimensions() int
	// Embed returns the embedding for a single piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per input, in the same order as
	// texts. Implementations chunk internally at whatever ceiling the
	// backing API imposes; callers never need to chunk themselves.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
