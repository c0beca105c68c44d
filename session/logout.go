package session

import (
	"context"

	"github.com/jrsteele09/workbench-session/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SignOut asks the coordination service for the provider logout URL,
// deletes the local session and navigates there. If the logout intent fails
// the local session is left intact and no navigation happens.
func (m *Manager) SignOut(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.flowMu.Lock()
	defer m.flowMu.Unlock()

	bearer, err := m.optional(store.KeySessionToken)
	if err != nil {
		return errors.Wrap(err, "[Manager.SignOut] get session token")
	}
	csrf, err := m.optional(store.KeyAPICSRFToken)
	if err != nil {
		return errors.Wrap(err, "[Manager.SignOut] get csrf token")
	}

	intent, err := m.api.LogoutIntent(ctx, bearer, csrf)
	if err != nil {
		log.Err(err).Msg("logout intent request failed")
		return errors.Wrap(err, "[Manager.SignOut] logout intent")
	}

	for _, key := range []string{store.KeySessionToken, store.KeyAPICSRFToken} {
		if err := m.store.Delete(key); err != nil {
			return errors.Wrapf(err, "[Manager.SignOut] delete %s", key)
		}
	}
	m.sessionGen.Add(1)

	if err := m.navigator.Navigate(ctx, intent.LogoutURL); err != nil {
		return errors.Wrap(err, "[Manager.SignOut] navigate to logout")
	}
	log.Info().Msg("signed out")
	return nil
}
