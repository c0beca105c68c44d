// Package authflowrepo holds authorization codes issued by the stand-in
// identity provider until they are exchanged.
package authflowrepo

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("authorization code not found")

// AuthFlowState is what an authorization code was issued for.
type AuthFlowState struct {
	Subject             string
	CodeChallenge       string
	CodeChallengeMethod string
	RedirectURI         string
	CreatedAt           time.Time
}

// Expired reports whether the code is older than ttl at now.
func (s *AuthFlowState) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) > ttl
}

type Repo interface {
	Upsert(code string, authState *AuthFlowState) error
	// Take returns the state for code and removes it, so a code can only be
	// exchanged once.
	Take(code string) (*AuthFlowState, error)
	Delete(code string) error
}
