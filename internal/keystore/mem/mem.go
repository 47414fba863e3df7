// Package mem provides an in-memory keystore used in tests and as an
// ephemeral fallback when no persistent backend is configured.
package mem

import (
	"context"
	"sync"

	"github.com/yshyp/lifepulse-vault/internal/errs"
)

// Store holds values in a mutex-guarded map.
type Store struct {
	mu sync.RWMutex
	m  map[string]string
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{m: make(map[string]string)}
}

// Get returns the stored value or errs.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
