package session

import (
	"context"
	"strings"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/pkce"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// StartLogin begins a PKCE login and navigates to the identity provider.
// If the login intent cannot be fetched nothing is persisted.
func (m *Manager) StartLogin(ctx context.Context) error {
	signInURL, err := m.PrepareLogin(ctx)
	if err != nil {
		return err
	}

	if err := m.navigator.Navigate(ctx, signInURL); err != nil {
		return errors.Wrap(err, "[Manager.StartLogin] navigate to identity provider")
	}
	return nil
}

// PrepareLogin performs every login step except navigation and returns the
// finalized sign-in URL. Pending secrets from an earlier attempt are
// overwritten.
func (m *Manager) PrepareLogin(ctx context.Context) (string, error) {
	if m.closed.Load() {
		return "", ErrClosed
	}

	m.flowMu.Lock()
	defer m.flowMu.Unlock()

	// Build secrets first so a missing entropy source fails before any
	// network or store side effect.
	pair, err := pkce.NewPair(m.verifierLength)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.PrepareLogin] pkce pair")
	}
	state, err := pkce.NewStateToken()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.PrepareLogin] state token")
	}

	intent, err := m.api.LoginIntent(ctx)
	if err != nil {
		log.Err(err).Msg("login intent request failed")
		return "", errors.Wrap(err, "[Manager.PrepareLogin] login intent")
	}

	signInURL := FinalizeSignInURL(intent.SignInURL, pair.Challenge, state)

	if intent.CSRFToken != "" {
		if err := m.store.Put(store.KeyAPICSRFToken, intent.CSRFToken); err != nil {
			return "", errors.Wrap(err, "[Manager.PrepareLogin] persist csrf token")
		}
	}
	if err := m.store.Put(store.KeyPendingPKCEVerifier, pair.Verifier); err != nil {
		return "", errors.Wrap(err, "[Manager.PrepareLogin] persist pending verifier")
	}
	if err := m.store.Put(store.KeyPendingStateVerifier, state); err != nil {
		return "", errors.Wrap(err, "[Manager.PrepareLogin] persist pending state")
	}

	log.Debug().Int("verifierLength", len(pair.Verifier)).Msg("pending login secrets stored")
	return signInURL, nil
}

// FinalizeSignInURL substitutes the PKCE challenge and state into the
// placeholders of a login intent's sign-in URL.
func FinalizeSignInURL(signInURL, challenge, state string) string {
	return strings.NewReplacer(
		authapi.PlaceholderCodeChallenge, challenge,
		authapi.PlaceholderState, state,
	).Replace(signInURL)
}
