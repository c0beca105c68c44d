package authflowrepo

import (
	"errors"
	"sync"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu    sync.Mutex
	codes map[string]AuthFlowState
}

// NewInMemoryRepo creates a new in-memory authorization code repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		codes: make(map[string]AuthFlowState),
	}
}

// Upsert stores or replaces the state for an authorization code
func (r *InMemoryRepo) Upsert(code string, authState *AuthFlowState) error {
	if code == "" {
		return errors.New("code cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes[code] = *authState
	return nil
}

// Take retrieves and removes the state for an authorization code
func (r *InMemoryRepo) Take(code string) (*AuthFlowState, error) {
	if code == "" {
		return nil, errors.New("code cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.codes[code]
	if !exists {
		return nil, ErrNotFound
	}
	delete(r.codes, code)
	return &authState, nil
}

// Delete removes an authorization code
func (r *InMemoryRepo) Delete(code string) error {
	if code == "" {
		return errors.New("code cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, code)
	return nil
}
