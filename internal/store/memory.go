package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory Store implementation for tests and dev runs
// without persistence.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]json.RawMessage)}
}

// Get returns the named document, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, name string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return cp, nil
}

// Put replaces the named document.
func (s *MemoryStore) Put(ctx context.Context, name string, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	s.docs[name] = cp
	return nil
}

// Update applies fn under the store lock so concurrent Updates on the same
// document never interleave.
func (s *MemoryStore) Update(ctx context.Context, name string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.docs[name] // nil when absent
	next, err := fn(cur)
	if err != nil {
		return err
	}
	cp := make(json.RawMessage, len(next))
	copy(cp, next)
	s.docs[name] = cp
	return nil
}
