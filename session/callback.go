package session

import (
	"context"
	"crypto/subtle"
	"net/url"

	"github.com/jrsteele09/workbench-session/claims"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/jrsteele09/workbench-session/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	ParamCode             = "code"
	ParamState            = "state"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)

// CallbackResult is returned by a completed callback.
type CallbackResult struct {
	Session *Record
	// User is nil when the bearer token's claims could not be decoded.
	User *users.User
	// CleanURL is the callback URL with the OAuth parameters removed.
	CleanURL string
}

// HandleCallback completes a login from the identity provider's redirect.
// It returns (nil, nil) when current carries no code and state, so it can be
// called on every page load.
//
// Once the parameters are present the pending secrets are consumed: they are
// deleted whether the state check or the token exchange succeeds or fails.
// Exchange failures are not retried.
func (m *Manager) HandleCallback(ctx context.Context, current *url.URL) (*CallbackResult, error) {
	if current == nil {
		return nil, nil
	}
	if m.closed.Load() {
		return nil, ErrClosed
	}

	query := current.Query()
	code, state := query.Get(ParamCode), query.Get(ParamState)
	providerErr := query.Get(ParamError)

	if state == "" || (code == "" && providerErr == "") {
		return nil, nil
	}

	m.flowMu.Lock()
	defer m.flowMu.Unlock()

	verifier, storedState, err := m.takePending()
	if err != nil {
		return nil, err
	}

	if storedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(storedState)) != 1 {
		log.Warn().Bool("pending", storedState != "").Msg("callback state does not match pending login")
		return nil, errors.Wrap(ErrStateMismatch, "[Manager.HandleCallback]")
	}

	if providerErr != "" {
		log.Warn().Str("error", providerErr).Msg("identity provider returned an error")
		return nil, errors.Wrapf(ErrAuthorizationDenied, "[Manager.HandleCallback] %s: %s",
			providerErr, query.Get(ParamErrorDescription))
	}

	if verifier == "" {
		return nil, errors.Wrap(ErrStateMismatch, "[Manager.HandleCallback] no pending verifier")
	}

	tokens, err := m.api.ExchangeToken(ctx, code, verifier)
	if err != nil {
		log.Err(err).Msg("token exchange failed")
		return nil, errors.Wrap(err, "[Manager.HandleCallback] exchange token")
	}

	if err := m.store.Put(store.KeySessionToken, tokens.BearerToken); err != nil {
		return nil, errors.Wrap(err, "[Manager.HandleCallback] persist session token")
	}
	m.sessionGen.Add(1)

	csrf, err := m.optional(store.KeyAPICSRFToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.HandleCallback] get csrf token")
	}

	result := &CallbackResult{
		Session:  &Record{BearerToken: tokens.BearerToken, CSRFToken: csrf},
		CleanURL: StripCallbackParams(current).String(),
	}

	if c, err := claims.Decode(tokens.BearerToken); err != nil {
		log.Warn().Err(err).Msg("session token claims could not be decoded")
	} else if u, err := users.FromClaims(c); err == nil {
		result.User = u
	}

	if err := m.navigator.Replace(ctx, result.CleanURL); err != nil {
		log.Err(err).Msg("failed to replace callback url")
	}
	if m.landingURL != "" {
		if err := m.navigator.Navigate(ctx, m.landingURL); err != nil {
			log.Err(err).Msg("failed to navigate to landing view")
		}
	}

	log.Info().Str("subject", subjectOf(result.User)).Msg("login completed")
	return result, nil
}

// takePending reads and deletes the pending verifier and state. Missing
// values come back empty.
func (m *Manager) takePending() (verifier, state string, err error) {
	verifier, err = m.optional(store.KeyPendingPKCEVerifier)
	if err == nil {
		state, err = m.optional(store.KeyPendingStateVerifier)
	}
	if clearErr := m.clearPending(); clearErr != nil && err == nil {
		err = clearErr
	}
	if err != nil {
		return "", "", errors.Wrap(err, "[Manager.takePending]")
	}
	return verifier, state, nil
}

// StripCallbackParams returns a copy of u without the OAuth redirect
// parameters.
func StripCallbackParams(u *url.URL) *url.URL {
	clean := *u
	query := clean.Query()
	for _, p := range []string{ParamCode, ParamState, ParamError, ParamErrorDescription, "session_state", "iss"} {
		query.Del(p)
	}
	clean.RawQuery = query.Encode()
	return &clean
}

func subjectOf(u *users.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
