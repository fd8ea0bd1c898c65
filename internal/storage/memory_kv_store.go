package storage

import (
	"context"
	"sync"
)

var _ KVStore = (*MemoryKVStore)(nil)

// MemoryKVStore keeps values in process memory. Nothing survives a restart.
type MemoryKVStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKVStore returns an empty MemoryKVStore.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string]string)}
}

//nolint:revive
func (s *MemoryKVStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

//nolint:revive
func (s *MemoryKVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

//nolint:revive
func (s *MemoryKVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
