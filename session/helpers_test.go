package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/claims"
	"github.com/jrsteele09/workbench-session/session"
	"github.com/jrsteele09/workbench-session/store/memory"
	"github.com/stretchr/testify/require"
)

const (
	testCSRF       = "abc"
	testSigningKey = "test-signing-key"
	testSignInURL  = "https://idp/auth?c=TEMP_CODE_CHALLENGE&s=TEMP_STATE_VERIFIER"
	testLogoutURL  = "https://idp/logout?client_id=workbench"
	testLandingURL = "https://workbench.local/home"
)

var errNotConfigured = errors.New("fake api: not configured")

// fakeAPI is a scriptable coordination service.
type fakeAPI struct {
	loginIntent func(ctx context.Context) (*authapi.LoginIntent, error)
	exchange    func(ctx context.Context, code, verifier string) (*authapi.TokenResponse, error)
	refresh     func(ctx context.Context, csrf string) (*authapi.TokenResponse, error)
	logout      func(ctx context.Context, bearer, csrf string) (*authapi.LogoutIntent, error)

	loginCalls    atomic.Int32
	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
	logoutCalls   atomic.Int32
}

func (f *fakeAPI) LoginIntent(ctx context.Context) (*authapi.LoginIntent, error) {
	f.loginCalls.Add(1)
	if f.loginIntent == nil {
		return nil, errNotConfigured
	}
	return f.loginIntent(ctx)
}

func (f *fakeAPI) ExchangeToken(ctx context.Context, code, verifier string) (*authapi.TokenResponse, error) {
	f.exchangeCalls.Add(1)
	if f.exchange == nil {
		return nil, errNotConfigured
	}
	return f.exchange(ctx, code, verifier)
}

func (f *fakeAPI) Refresh(ctx context.Context, csrf string) (*authapi.TokenResponse, error) {
	f.refreshCalls.Add(1)
	if f.refresh == nil {
		return nil, errNotConfigured
	}
	return f.refresh(ctx, csrf)
}

func (f *fakeAPI) LogoutIntent(ctx context.Context, bearer, csrf string) (*authapi.LogoutIntent, error) {
	f.logoutCalls.Add(1)
	if f.logout == nil {
		return nil, errNotConfigured
	}
	return f.logout(ctx, bearer, csrf)
}

// recordingNavigator keeps every navigation in order.
type recordingNavigator struct {
	mu          sync.Mutex
	navigations []string
	replaces    []string
	navigateErr error
}

func (n *recordingNavigator) Navigate(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.navigateErr != nil {
		return n.navigateErr
	}
	n.navigations = append(n.navigations, target)
	return nil
}

func (n *recordingNavigator) Replace(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replaces = append(n.replaces, target)
	return nil
}

func (n *recordingNavigator) Navigations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.navigations...)
}

func (n *recordingNavigator) Replaces() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.replaces...)
}

type testFixture struct {
	store     *memory.InMemoryStore
	api       *fakeAPI
	navigator *recordingNavigator
	manager   *session.Manager
}

func setupTestFixture(t *testing.T, opts ...session.Option) *testFixture {
	t.Helper()

	f := &testFixture{
		store:     memory.New(),
		api:       &fakeAPI{},
		navigator: &recordingNavigator{},
	}
	m, err := session.New(f.store, f.api, f.navigator, opts...)
	require.NoError(t, err)
	f.manager = m
	t.Cleanup(func() { _ = m.Close() })
	return f
}

// get returns the stored value or "" when absent.
func (f *testFixture) get(t *testing.T, key string) string {
	t.Helper()
	v, err := f.store.Get(key)
	if err != nil {
		return ""
	}
	return v
}

func (f *testFixture) put(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, f.store.Put(key, value))
}

// issueToken mints a signed compact token carrying c.
func issueToken(t *testing.T, c *claims.Claims) string {
	t.Helper()
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return tok
}

func researcherClaims(subject string, expiresAt time.Time) *claims.Claims {
	return &claims.Claims{
		Subject:    subject,
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Email:      "ada@example.com",
		Groups:     []string{"researcher"},
		ExpiresAt:  jwtlib.NewNumericDate(expiresAt),
	}
}
