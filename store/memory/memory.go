// Package memory is an in-process Store. It does not survive a restart and
// is meant for tests and short-lived tools.
package memory

import (
	"errors"
	"sync"

	"github.com/jrsteele09/workbench-session/store"
)

var _ store.Store = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe in-memory implementation of store.Store
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty in-memory store
func New() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string]string),
	}
}

// Put stores or replaces a value
func (s *InMemoryStore) Put(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Get retrieves a value by key
func (s *InMemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// Delete removes a value
func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Keys returns the keys currently held, in no particular order.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
