// Package memory is the unstructured memory core (spec §4.D): it
// orchestrates embeddings → vector store → fact extraction/consolidation
// → vector store, and owns the UUID↔ordinal remap so the LLM never sees
// real identifiers.
package memory

import (
	"context"
	"fmt"

	"github.com/recallmem/recall/pkg/embeddings"
	"github.com/recallmem/recall/pkg/facts"
	"github.com/recallmem/recall/pkg/vectorstore"
)

// neighbourWidth is how many existing memories are presented to the
// consolidator per fact (§4.C: "against ≤5 neighbours").
const neighbourWidth = 5

// Client is the unstructured memory orchestrator.
type Client struct {
	store      vectorstore.Storer
	embedder   embeddings.Provider
	consolider *facts.Service
}

// New builds a Client over a store, an embedding provider, and a fact
// extraction/consolidation service.
func New(store vectorstore.Storer, embedder embeddings.Provider, consolider *facts.Service) *Client {
	return &Client{store: store, embedder: embedder, consolider: consolider}
}

// ExtractOptions carries the optional metadata attached to every memory
// produced by one Extract call.
type ExtractOptions struct {
	Tenant   string
	Source   string
	SourceID string
}

// Extract runs extract→embed→neighbours→consolidate→apply for a single
// piece of conversation text and returns every memory that was added or
// updated as a result (deletions and no-ops contribute nothing), per
// §4.D.
func (c *Client) Extract(ctx context.Context, text string, opts ExtractOptions) ([]*vectorstore.Memory, error) {
	result, err := c.consolider.Extract(ctx, nil, facts.Message{Role: "user", Content: text})
	if err != nil {
		return nil, fmt.Errorf("memory: extract: %w", err)
	}

	var applied []*vectorstore.Memory
	for _, fact := range result.Facts {
		if err := ctx.Err(); err != nil {
			// A cancelled extract keeps whatever prefix already committed.
			return applied, nil
		}

		m, err := c.processFact(ctx, fact.Content, opts)
		if err != nil {
			// A failed embedding aborts this fact only; siblings continue.
			continue
		}
		if m != nil {
			applied = append(applied, m)
		}
	}
	return applied, nil
}

func (c *Client) processFact(ctx context.Context, content string, opts ExtractOptions) (*vectorstore.Memory, error) {
	embedding, err := c.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("memory: embed fact: %w", err)
	}

	neighbours, err := c.store.QueryByEmbedding(ctx, embedding, opts.Tenant, neighbourWidth)
	if err != nil {
		return nil, fmt.Errorf("memory: neighbour lookup: %w", err)
	}

	remap, candidates := buildRemap(neighbours)
	decision := c.consolider.Consolidate(ctx, content, candidates)

	metadata := map[string]string{}
	if opts.Source != "" {
		metadata["source"] = opts.Source
	}
	if opts.SourceID != "" {
		metadata["sourceId"] = opts.SourceID
	}

	switch decision.Action {
	case facts.ActionAdd:
		finalContent := content
		if decision.Content != nil {
			finalContent = *decision.Content
		}
		return c.insertFact(ctx, opts.Tenant, finalContent, embedding, metadata)

	case facts.ActionUpdate:
		id, ok := resolveID(remap, decision.ID)
		if !ok {
			// Invalid ordinal: degrade to ADD (§4.D step 5 and §4.C degrade rule).
			return c.insertFact(ctx, opts.Tenant, content, embedding, metadata)
		}
		merged := content
		if decision.Content != nil {
			merged = *decision.Content
		}
		mergedEmbedding, err := c.embedder.Embed(ctx, merged)
		if err != nil {
			return nil, fmt.Errorf("memory: re-embed merged fact: %w", err)
		}
		return c.store.Update(ctx, id, vectorstore.Update{
			Content:   &merged,
			Embedding: mergedEmbedding,
		})

	case facts.ActionDelete:
		id, ok := resolveID(remap, decision.ID)
		if !ok {
			// Invalid ordinal: degrade to ADD, same as UPDATE.
			return c.insertFact(ctx, opts.Tenant, content, embedding, metadata)
		}
		if err := c.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("memory: delete: %w", err)
		}
		return nil, nil

	default: // ActionNone
		return nil, nil
	}
}

func (c *Client) insertFact(ctx context.Context, tenant, content string, embedding []float32, metadata map[string]string) (*vectorstore.Memory, error) {
	m, err := c.store.Insert(ctx, tenant, content, embedding, metadata)
	if err != nil {
		return nil, fmt.Errorf("memory: insert: %w", err)
	}
	return m, nil
}

// QueryOptions bounds a Query call.
type QueryOptions struct {
	Tenant    string
	Limit     int
	Threshold *float64
}

// Query embeds the context string and returns the nearest memories in
// the tenant, optionally dropping rows below a cosine-similarity
// threshold recomputed client-side (§4.D) so the rule is uniform
// regardless of the adapter's native distance metric.
func (c *Client) Query(ctx context.Context, text string, opts QueryOptions) ([]*vectorstore.Memory, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("memory: query: embed: %w", err)
	}

	results, err := c.store.QueryByEmbedding(ctx, embedding, opts.Tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: query: %w", err)
	}

	if opts.Threshold == nil {
		return results, nil
	}
	out := make([]*vectorstore.Memory, 0, len(results))
	for _, m := range results {
		if cosineSimilarity(embedding, m.Embedding) >= *opts.Threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Client) List(ctx context.Context, tenant string, opts vectorstore.ListOptions) ([]*vectorstore.Memory, error) {
	return c.store.List(ctx, tenant, opts)
}

func (c *Client) Get(ctx context.Context, id string) (*vectorstore.Memory, error) {
	return c.store.Get(ctx, id)
}

// Update re-embeds when and only when content is present (§4.D).
func (c *Client) Update(ctx context.Context, id string, content *string, metadata map[string]string) (*vectorstore.Memory, error) {
	upd := vectorstore.Update{Metadata: metadata}
	if content != nil {
		embedding, err := c.embedder.Embed(ctx, *content)
		if err != nil {
			return nil, fmt.Errorf("memory: update: re-embed: %w", err)
		}
		upd.Content = content
		upd.Embedding = embedding
	}
	return c.store.Update(ctx, id, upd)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

func (c *Client) Clear(ctx context.Context, tenant string) error {
	return c.store.Clear(ctx, tenant)
}

func (c *Client) Count(ctx context.Context, tenant string) (int, error) {
	return c.store.Count(ctx, tenant)
}
