package histstore

import (
	"context"
	"sync"
)

// MemoryStore keeps history for the lifetime of the process only.
type MemoryStore struct {
	mu      sync.Mutex
	entries []string
	limit   int
}

// NewMemoryStore creates an empty store, optionally seeded with entries.
func NewMemoryStore(limit int, seed ...string) *MemoryStore {
	return &MemoryStore{entries: append([]string{}, seed...), limit: limit}
}

func (m *MemoryStore) LoadHistory(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, tail(m.entries, m.limit)...), nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, entry string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
