package agent

import (
	"sync"

	"github.com/recallmem/recall/pkg/llm"
)

// toolCache holds one tool-definition list per tenant. Tool schemas are
// currently tenant-invariant (the six tools never vary their shape by
// tenant), but the cache is keyed by tenant per §5 ("the agent's
// per-tenant tool closure"), with last-writer-wins semantics: a plain
// mutex-guarded map.
type toolCache struct {
	mu    sync.RWMutex
	byTenant map[string][]llm.ToolDefinition
}

func newToolCache() *toolCache {
	return &toolCache{byTenant: make(map[string][]llm.ToolDefinition)}
}

func (c *toolCache) get(tenant string) ([]llm.ToolDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tools, ok := c.byTenant[tenant]
	return tools, ok
}

func (c *toolCache) put(tenant string, tools []llm.ToolDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byTenant[tenant] = tools
}
