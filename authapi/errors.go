package authapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetworkFailure wraps transport-level failures: the request never
	// produced a readable response.
	ErrNetworkFailure = errors.New("network failure")

	// ErrInvalidResponse means a 2xx response could not be understood.
	ErrInvalidResponse = errors.New("invalid response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Unauthorized reports whether the server answered 401.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized reports whether err carries a 401 StatusError.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}
