package branch

import (
	"context"
	"sync"
)

// Compile-time check that MemoryStore implements SelectionStore.
var _ SelectionStore = (*MemoryStore)(nil)

// MemoryStore is a process-local SelectionStore for development and tests.
// Selections are lost on restart and are not shared between instances.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[sessionID]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID, branchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sessionID] = branchID
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sessionID)
	return nil
}
