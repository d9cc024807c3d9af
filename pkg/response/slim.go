// Package response provides minimal JSON response projections that strip
// internal-only fields before a result crosses the MCP boundary: keep only
// what the client actually needs, dropped fields don't even reach json.Marshal.
package response

import "github.com/recallmem/recall/pkg/vectorstore"

// SlimMemory is a Memory with its embedding vector stripped — the MCP
// tool surface responds with this, never the raw float vector (§6:
// "Responses strip the embedding field for brevity").
type SlimMemory struct {
	ID        string            `json:"id"`
	Tenant    string            `json:"tenant"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt int64             `json:"createdAt"`
	UpdatedAt int64             `json:"updatedAt"`
}

// FromMemory projects a vectorstore.Memory down to its slim form.
func FromMemory(m *vectorstore.Memory) *SlimMemory {
	if m == nil {
		return nil
	}
	return &SlimMemory{
		ID: m.ID, Tenant: m.Tenant, Content: m.Content,
		Metadata: m.Metadata, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

// FromMemories projects a slice, preserving order.
func FromMemories(in []*vectorstore.Memory) []*SlimMemory {
	out := make([]*SlimMemory, len(in))
	for i, m := range in {
		out[i] = FromMemory(m)
	}
	return out
}
