package session

import (
	"errors"

	apperrors "github.com/jrsteele09/workbench-session/internal/errors"
)

var (
	// ErrStateMismatch means the callback's state did not match the pending
	// login, or no login was pending. Always fatal to the login attempt.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrAuthorizationExpired is the 401 that triggers a refresh.
	ErrAuthorizationExpired = errors.New("authorization expired")

	// ErrRefreshExhausted means a refresh was attempted and the call was
	// still unauthorized. The user must sign in again.
	ErrRefreshExhausted = errors.New("refresh exhausted")

	// ErrAuthorizationDenied is returned when the identity provider
	// redirects back with an error instead of a code.
	ErrAuthorizationDenied = errors.New("authorization denied")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrClosed           = apperrors.ErrClosed
)
