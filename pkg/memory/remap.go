package memory

import (
	"strconv"

	"github.com/recallmem/recall/pkg/facts"
	"github.com/recallmem/recall/pkg/vectorstore"
)

// buildRemap maps ordinal positions "0".."n-1" to the real UUIDs of
// neighbours, in the order they were returned, and builds the parallel
// Neighbour list the consolidator is allowed to see. Real identifiers
// never reach the LLM (§9, anti-hallucination remap).
func buildRemap(neighbours []*vectorstore.Memory) (map[string]string, []facts.Neighbour) {
	remap := make(map[string]string, len(neighbours))
	out := make([]facts.Neighbour, len(neighbours))
	for i, n := range neighbours {
		ordinal := strconv.Itoa(i)
		remap[ordinal] = n.ID
		out[i] = facts.Neighbour{Ordinal: ordinal, Content: n.Content}
	}
	return remap, out
}

// resolveID substitutes the real UUID for an ordinal returned by the
// consolidator. An id outside the remap is invalid and the caller must
// fall back to ADD.
func resolveID(remap map[string]string, ordinal *string) (string, bool) {
	if ordinal == nil {
		return "", false
	}
	real, ok := remap[*ordinal]
	return real, ok
}
