// Package session implements the workbench authentication session manager:
// PKCE login, the redirect callback, logout and the refresh interceptor that
// wraps authenticated API calls.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/claims"
	"github.com/jrsteele09/workbench-session/pkce"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/jrsteele09/workbench-session/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const DefaultCSRFHeader = authapi.DefaultCSRFHeader

// API is the coordination service the manager talks to. *authapi.Client
// implements it.
type API interface {
	LoginIntent(ctx context.Context) (*authapi.LoginIntent, error)
	ExchangeToken(ctx context.Context, code, codeVerifier string) (*authapi.TokenResponse, error)
	Refresh(ctx context.Context, csrfToken string) (*authapi.TokenResponse, error)
	LogoutIntent(ctx context.Context, bearerToken, csrfToken string) (*authapi.LogoutIntent, error)
}

// Navigator moves the user agent. Navigate opens a new location; Replace
// rewrites the current one without adding a history entry.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
	Replace(ctx context.Context, target string) error
}

// State is the manager lifecycle.
type State int32

const (
	StateInit State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Record is the stored session: the bearer token and the CSRF token that
// accompanies state-changing calls.
type Record struct {
	BearerToken string
	CSRFToken   string
}

// Token returns the bearer as an oauth2.Token.
func (r *Record) Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: r.BearerToken, TokenType: "Bearer"}
}

// Manager owns the session store and coordinates every flow that mutates it.
// Construct one per process and share it.
type Manager struct {
	store     store.Store
	api       API
	navigator Navigator

	verifierLength int
	landingURL     string
	csrfHeader     string
	coalesce       bool
	nowTimeFunc    func() time.Time

	// flowMu serialises login, callback and logout so a pending verifier and
	// its state are always written and consumed as a pair. A refresh holds it
	// while persisting its token.
	flowMu sync.Mutex
	// sessionGen changes whenever a session is created or ended. A refresh
	// started under an older generation does not persist its token.
	sessionGen atomic.Uint64

	refreshGroup singleflight.Group
	refreshes    atomic.Int64

	closed atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithVerifierLength sets the PKCE verifier length. Out-of-range values are
// rejected by StartLogin rather than clamped.
func WithVerifierLength(n int) Option {
	return func(m *Manager) {
		m.verifierLength = n
	}
}

// WithLandingURL sets where the callback navigates after a successful login.
func WithLandingURL(u string) Option {
	return func(m *Manager) {
		m.landingURL = u
	}
}

// WithCSRFHeader sets the header the interceptor sends the CSRF token under.
func WithCSRFHeader(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.csrfHeader = name
		}
	}
}

// WithCoalescedRefresh makes concurrent 401s share one in-flight refresh
// call. Each call still replays at most once.
func WithCoalescedRefresh(enabled bool) Option {
	return func(m *Manager) {
		m.coalesce = enabled
	}
}

// WithNowTime overrides the clock used for token expiry reporting.
func WithNowTime(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.nowTimeFunc = fn
		}
	}
}

// New creates a Manager.
func New(s store.Store, api API, navigator Navigator, opts ...Option) (*Manager, error) {
	if s == nil {
		return nil, errors.New("[session.New] store is required")
	}
	if api == nil {
		return nil, errors.New("[session.New] api is required")
	}
	if navigator == nil {
		return nil, errors.New("[session.New] navigator is required")
	}

	m := &Manager{
		store:          s,
		api:            api,
		navigator:      navigator,
		verifierLength: pkce.DefaultVerifierLength,
		csrfHeader:     DefaultCSRFHeader,
		nowTimeFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State reports the lifecycle state: closed after Close, active while a
// session token is stored, init otherwise.
func (m *Manager) State() State {
	if m.closed.Load() {
		return StateClosed
	}
	if _, err := m.store.Get(store.KeySessionToken); err == nil {
		return StateActive
	}
	return StateInit
}

// Close tears the manager down and closes the store if it is closable.
// Calling Close twice is safe.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c, ok := m.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "[Manager.Close] store")
		}
	}
	return nil
}

// Session returns the stored session record.
func (m *Manager) Session() (*Record, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	bearer, err := m.store.Get(store.KeySessionToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Session] get session token")
	}

	csrf, err := m.optional(store.KeyAPICSRFToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Session] get csrf token")
	}
	return &Record{BearerToken: bearer, CSRFToken: csrf}, nil
}

// Claims decodes the stored bearer token.
func (m *Manager) Claims() (*claims.Claims, error) {
	rec, err := m.Session()
	if err != nil {
		return nil, err
	}
	return claims.Decode(rec.BearerToken)
}

// CurrentUser derives the user from the stored bearer token. It is
// recomputed on every call.
func (m *Manager) CurrentUser() (*users.User, error) {
	c, err := m.Claims()
	if err != nil {
		return nil, err
	}
	return users.FromClaims(c)
}

// ExpiresIn reports the time left on the stored bearer token, or zero when
// the token carries no expiry.
func (m *Manager) ExpiresIn() (time.Duration, error) {
	c, err := m.Claims()
	if err != nil {
		return 0, err
	}
	exp := c.Expiry()
	if exp.IsZero() {
		return 0, nil
	}
	return exp.Sub(m.nowTimeFunc()), nil
}

// TokenSource exposes the stored bearer as an oauth2.TokenSource. It never
// refreshes; use Transport for that.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSource{m: m}
}

type tokenSource struct {
	m *Manager
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	rec, err := ts.m.Session()
	if err != nil {
		return nil, err
	}
	tok := rec.Token()
	if c, err := claims.Decode(rec.BearerToken); err == nil {
		tok.Expiry = c.Expiry()
	}
	return tok, nil
}

// Refreshes returns how many refresh calls have reached the coordination
// service.
func (m *Manager) Refreshes() int64 {
	return m.refreshes.Load()
}

// optional returns the value for key or "" when absent.
func (m *Manager) optional(key string) (string, error) {
	v, err := m.store.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (m *Manager) clearPending() error {
	var errs []error
	for _, key := range []string{store.KeyPendingPKCEVerifier, store.KeyPendingStateVerifier} {
		if err := m.store.Delete(key); err != nil {
			log.Err(err).Str("key", key).Msg("failed to delete pending login secret")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(errs[0], "[Manager.clearPending]")
	}
	return nil
}
