package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmem/recall/pkg/vectorstore"
)

func TestBuildRemapAssignsSequentialOrdinals(t *testing.T) {
	neighbours := []*vectorstore.Memory{
		{ID: "uuid-a", Content: "User works at Google"},
		{ID: "uuid-b", Content: "User's name is John"},
	}
	remap, out := buildRemap(neighbours)

	require.Len(t, out, 2)
	assert.Equal(t, "0", out[0].Ordinal)
	assert.Equal(t, "1", out[1].Ordinal)
	assert.Equal(t, "User works at Google", out[0].Content)

	assert.Equal(t, "uuid-a", remap["0"])
	assert.Equal(t, "uuid-b", remap["1"])
}

func TestBuildRemapNeverExposesRealIDs(t *testing.T) {
	neighbours := []*vectorstore.Memory{{ID: "secret-uuid", Content: "fact"}}
	_, out := buildRemap(neighbours)
	for _, n := range out {
		assert.NotEqual(t, "secret-uuid", n.Ordinal)
	}
}

func TestResolveIDKnownOrdinal(t *testing.T) {
	remap := map[string]string{"0": "uuid-a", "1": "uuid-b"}
	ordinal := "1"
	id, ok := resolveID(remap, &ordinal)
	assert.True(t, ok)
	assert.Equal(t, "uuid-b", id)
}

func TestResolveIDUnknownOrdinalFails(t *testing.T) {
	remap := map[string]string{"0": "uuid-a"}
	ordinal := "5"
	_, ok := resolveID(remap, &ordinal)
	assert.False(t, ok)
}

func TestResolveIDNilOrdinalFails(t *testing.T) {
	remap := map[string]string{"0": "uuid-a"}
	_, ok := resolveID(remap, nil)
	assert.False(t, ok)
}

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	a := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-9)
}

func TestCosineSimilarityMismatchedLength(t *testing.T) {
	assert.Equal(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
}
