package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps slots in a map. Used in tests and for sessions that
// do not need durability across restarts.
type MemoryStorage struct {
	m     sync.RWMutex
	slots map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	val, ok := s.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.m.Lock()
	defer s.m.Unlock()
	val := make([]byte, len(value))
	copy(val, value)
	s.slots[key] = val
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.slots, key)
	return nil
}
