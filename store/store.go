// Package store defines the persistent key-value capability the session
// manager keeps its secrets and session artifacts in.
package store

import (
	apperrors "github.com/jrsteele09/workbench-session/internal/errors"
)

// Keys written by the session manager.
const (
	KeySessionToken         = "sessionToken"
	KeyAPICSRFToken         = "apiCsrfToken"
	KeyPendingPKCEVerifier  = "pendingPkceVerifier"
	KeyPendingStateVerifier = "pendingStateVerifier"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = apperrors.ErrNotFound

// Store is a scoped key-value store. Implementations other than the
// in-memory one must survive a process restart. Values are replaced whole;
// there is no expiry, callers delete what they no longer need.
type Store interface {
	// Put creates or replaces the value stored under key.
	Put(key, value string) error

	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
