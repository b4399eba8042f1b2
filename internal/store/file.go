package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileStore writes one JSON file per key under a state directory. Key text is
// sanitized into a filename; anything outside [a-zA-Z0-9_-] is escaped so keys
// never collide.
type fileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(key Key) string {
	var b strings.Builder

	for _, r := range string(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_':
			b.WriteRune(r)
		case r == ':':
			b.WriteByte('.')
		default:
			b.WriteString("%" + hex.EncodeToString([]byte(string(r))))
		}
	}

	return filepath.Join(s.dir, b.String()+".json")
}

func (s *fileStore) Get(_ context.Context, key Key, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read state for key %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal state for key %s: %w", key, err)
	}

	return true, nil
}

func (s *fileStore) Set(_ context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal state for key %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write-then-rename keeps readers from ever seeing a torn document.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write state for key %s: %w", key, err)
	}

	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to commit state for key %s: %w", key, err)
	}

	return nil
}

func (s *fileStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state for key %s: %w", key, err)
	}

	return nil
}

func (s *fileStore) Close() error {
	return nil
}
