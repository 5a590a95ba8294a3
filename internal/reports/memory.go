package reports

import (
	"context"
	"sort"
	"sync"

	"github.com/erpsystem/doccheck/internal/verify"
)

// MemoryRepo is an in-memory Repository used when MongoDB is not configured
// and in unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]verify.Result
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]verify.Result)}
}

func (m *MemoryRepo) Save(_ context.Context, res *verify.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[res.RunID] = *res
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, runID string) (*verify.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.store[runID]; ok {
		return &r, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListByOrder(_ context.Context, orderID string, limit int) ([]*verify.Result, error) {
	m.mu.RLock()
	out := []*verify.Result{}
	for _, r := range m.store {
		if r.OrderID == orderID {
			r := r
			out = append(out, &r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
