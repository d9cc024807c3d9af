package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmem/recall/pkg/vectorstore"
)

func TestFromMemoryStripsEmbedding(t *testing.T) {
	m := &vectorstore.Memory{
		ID: "id-1", Tenant: "t", Content: "fact",
		Embedding: []float32{1, 2, 3},
		Metadata:  map[string]string{"k": "v"},
		CreatedAt: 100, UpdatedAt: 200,
	}
	slim := FromMemory(m)
	require.NotNil(t, slim)
	assert.Equal(t, "id-1", slim.ID)
	assert.Equal(t, "fact", slim.Content)

	out, err := json.Marshal(slim)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "embedding")
}

func TestFromMemoryNil(t *testing.T) {
	assert.Nil(t, FromMemory(nil))
}

func TestFromMemoriesPreservesOrder(t *testing.T) {
	in := []*vectorstore.Memory{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
	}
	out := FromMemories(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}
