package vectorstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is the in-memory brute-force adapter. It is shipped for tests
// and for callers that don't need durability; behaviour matches the SQL
// adapters except for persistence across process restarts.
type MemStore struct {
	mu   sync.RWMutex
	dim  int
	rows map[string]*Memory
	seq  int64 // monotonic tiebreaker for equal-timestamp ordering
}

// NewMemStore creates an empty store that accepts embeddings of the given
// dimension. dim is fixed for the lifetime of the store.
func NewMemStore(dim int) *MemStore {
	return &MemStore{dim: dim, rows: make(map[string]*Memory)}
}

func (s *MemStore) Dimensions() int { return s.dim }

func (s *MemStore) Close() error { return nil }

func (s *MemStore) Insert(ctx context.Context, tenant, content string, embedding []float32, metadata map[string]string) (*Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(embedding) != s.dim {
		return nil, storageErr("insert", errDimMismatch(s.dim, len(embedding)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	m := &Memory{
		ID:        uuid.NewString(),
		Tenant:    tenant,
		Content:   content,
		Embedding: append([]float32(nil), embedding...),
		Metadata:  cloneMeta(metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.seq++
	m.seq = s.seq
	s.rows[m.ID] = m
	return cloneMemory(m), nil
}

func (s *MemStore) Update(ctx context.Context, id string, upd Update) (*Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.rows[id]
	if !ok {
		return nil, ErrMemoryNotFound
	}
	if upd.Content != nil {
		m.Content = *upd.Content
	}
	if upd.Embedding != nil {
		if len(upd.Embedding) != s.dim {
			return nil, storageErr("update", errDimMismatch(s.dim, len(upd.Embedding)))
		}
		m.Embedding = append([]float32(nil), upd.Embedding...)
	}
	if upd.Metadata != nil {
		m.Metadata = cloneMeta(upd.Metadata)
	}
	m.UpdatedAt = time.Now().UnixMilli()
	return cloneMemory(m), nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return cloneMemory(m), nil
}

func (s *MemStore) List(ctx context.Context, tenant string, opts ListOptions) ([]*Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Memory
	for _, m := range s.rows {
		if m.Tenant == tenant {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].seq < out[j].seq
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return cloneMemories(out), nil
}

func (s *MemStore) Count(ctx context.Context, tenant string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.rows {
		if m.Tenant == tenant {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) Clear(ctx context.Context, tenant string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.rows {
		if m.Tenant == tenant {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *MemStore) QueryByEmbedding(ctx context.Context, query []float32, tenant string, k int) ([]*Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		m   *Memory
		sim float64
	}
	var candidates []scored
	for _, m := range s.rows {
		if m.Tenant != tenant {
			continue
		}
		candidates = append(candidates, scored{m: m, sim: cosineSimilarity(query, m.Embedding)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].m.seq < candidates[j].m.seq
	})
	if k > 0 && k < len(candidates) {
		candidates = candidates[:k]
	}
	out := make([]*Memory, len(candidates))
	for i, c := range candidates {
		out[i] = cloneMemory(c.m)
	}
	return out, nil
}

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMemory(m *Memory) *Memory {
	cp := *m
	cp.Embedding = append([]float32(nil), m.Embedding...)
	cp.Metadata = cloneMeta(m.Metadata)
	return &cp
}

func cloneMemories(in []*Memory) []*Memory {
	out := make([]*Memory, len(in))
	for i, m := range in {
		out[i] = cloneMemory(m)
	}
	return out
}
