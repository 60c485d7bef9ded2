package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/desertthunder/curate/internal/shared"
)

// MemoryStore is a process-local models.Store.
//
// Values are held JSON-encoded so callers never share memory with the store.
type MemoryStore struct {
	changeFeed
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%w: failed to decode %s: %w", shared.ErrStorageFailure, key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", shared.ErrStorageFailure, key, err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// Raw returns the encoded document under key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	return raw, ok
}
