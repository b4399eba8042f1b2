package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// memoryStore keeps state in-process. Used by tests and by single-shot runs
// where durability does not matter. Values are kept as marshalled JSON so Get
// hands out copies, never shared references.
type memoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

func NewMemoryStore() Store {
	return &memoryStore{data: make(map[Key][]byte)}
}

func (s *memoryStore) Get(_ context.Context, key Key, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal state for key %s: %w", key, err)
	}

	return true, nil
}

func (s *memoryStore) Set(_ context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal state for key %s: %w", key, err)
	}

	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()

	return nil
}

func (s *memoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
