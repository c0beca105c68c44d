// Package loginsession keeps the server side of a workbench session: the
// record the refresh cookie points at.
package loginsession

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	// Subject is empty until the authorization code has been exchanged.
	Subject string

	// CSRFToken must accompany refresh and logout calls.
	CSRFToken string

	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated reports whether the session has completed a code exchange
// and has not expired at now.
func (s Session) Authenticated(now time.Time) bool {
	return s.Subject != "" && now.Before(s.ExpiresAt)
}

type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) error
}
