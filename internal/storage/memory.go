package storage

import (
	"context"
	"sync"
)

// MemoryKV implements KV in memory, for tests and ephemeral sessions
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV returns an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Read returns the values stored under keys
func (s *MemoryKV) Read(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := s.values[key]; ok {
			values[key] = v
		}
	}
	return values, nil
}

// Write stores set and removes remove atomically
func (s *MemoryKV) Write(ctx context.Context, set map[string]string, remove ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range set {
		s.values[key] = value
	}
	for _, key := range remove {
		delete(s.values, key)
	}
	return nil
}

// Delete removes keys
func (s *MemoryKV) Delete(ctx context.Context, keys ...string) error {
	return s.Write(ctx, nil, keys...)
}

// Len returns the number of stored keys. Useful for tests.
func (s *MemoryKV) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
