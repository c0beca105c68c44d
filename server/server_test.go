package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/internal/config"
	"github.com/jrsteele09/workbench-session/pkce"
	"github.com/jrsteele09/workbench-session/server"
	"github.com/jrsteele09/workbench-session/server/authflowrepo"
	"github.com/jrsteele09/workbench-session/server/loginsession"
	"github.com/jrsteele09/workbench-session/server/signing"
	"github.com/jrsteele09/workbench-session/session"
	"github.com/jrsteele09/workbench-session/store/memory"
	"github.com/jrsteele09/workbench-session/users"
	"github.com/stretchr/testify/require"
)

const testRedirectURL = "http://127.0.0.1:3000/callback"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// idpNavigator plays the browser: navigating to the identity provider
// follows its redirect and records where it sent the user agent back to.
type idpNavigator struct {
	t        *testing.T
	mu       sync.Mutex
	callback *url.URL
	visited  []string
}

func (n *idpNavigator) Navigate(ctx context.Context, target string) error {
	n.mu.Lock()
	n.visited = append(n.visited, target)
	n.mu.Unlock()

	if !strings.Contains(target, server.RouteIDPAuthorize) {
		return nil
	}

	browser := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := browser.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	require.Equal(n.t, http.StatusSeeOther, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.callback = loc
	n.mu.Unlock()
	return nil
}

func (n *idpNavigator) Replace(context.Context, string) error { return nil }

func (n *idpNavigator) Callback() *url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.callback
}

func (n *idpNavigator) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visited...)
}

type testFixture struct {
	clock     *fakeClock
	srv       *httptest.Server
	api       *authapi.Client
	navigator *idpNavigator
	manager   *session.Manager
}

func setupTestFixture(t *testing.T, opts ...server.Option) *testFixture {
	t.Helper()

	t.Setenv("ENV", "TEST")
	t.Setenv("WORKBENCH_DEV_SIGNING_KEY", "test-signing-key")
	t.Setenv("WORKBENCH_DEV_ACCESS_TTL", "5m")
	t.Setenv("WORKBENCH_DEV_SESSION_TTL", "1h")
	t.Setenv("WORKBENCH_DEV_CODE_TTL", "2m")

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]server.Option{
		server.WithNowTime(clock.Now),
		server.WithRedirectURLs(testRedirectURL),
	}, opts...)

	s, err := server.New(config.New(), opts...)
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	api, err := authapi.NewClient(srv.URL)
	require.NoError(t, err)

	nav := &idpNavigator{t: t}
	m, err := session.New(memory.New(), api, nav)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return &testFixture{clock: clock, srv: srv, api: api, navigator: nav, manager: m}
}

func (f *testFixture) login(t *testing.T) *session.CallbackResult {
	t.Helper()

	require.NoError(t, f.manager.StartLogin(context.Background()))
	cb := f.navigator.Callback()
	require.NotNil(t, cb)

	res, err := f.manager.HandleCallback(context.Background(), cb)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func (f *testFixture) getMe(t *testing.T) (int, string, error) {
	t.Helper()

	resp, err := f.manager.HTTPClient(nil).Get(f.srv.URL + server.RouteAPIMe)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), nil
}

func TestNewValidation(t *testing.T) {
	t.Setenv("WORKBENCH_DEV_SIGNING_KEY", "k")
	t.Setenv("WORKBENCH_DEV_SIGNING_ALG", signing.HS256)

	_, err := server.New(config.New(), server.WithUsers(nil))
	require.Error(t, err)
	_, err = server.New(config.New(), server.WithRedirectURLs())
	require.Error(t, err)

	t.Setenv("WORKBENCH_DEV_SIGNING_ALG", "none")
	_, err = server.New(config.New())
	require.Error(t, err)
}

func TestEndToEndLogin(t *testing.T) {
	f := setupTestFixture(t)
	res := f.login(t)

	require.NotNil(t, res.User)
	require.Equal(t, "dev-researcher", res.User.ID)
	require.Equal(t, users.RoleResearcher, res.User.Role)
	require.Equal(t, testRedirectURL, res.CleanURL)
	require.NotEmpty(t, res.Session.CSRFToken)

	visited := f.navigator.Visited()
	require.Len(t, visited, 1)
	require.NotContains(t, visited[0], authapi.PlaceholderCodeChallenge)
	require.NotContains(t, visited[0], authapi.PlaceholderState)

	status, body, err := f.getMe(t)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"email":"rosalind@workbench.local"`)
	require.Equal(t, int64(0), f.manager.Refreshes())
}

func TestEndToEndRefreshAfterTokenExpiry(t *testing.T) {
	f := setupTestFixture(t)
	res := f.login(t)

	f.clock.Advance(10 * time.Minute)

	status, _, err := f.getMe(t)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(1), f.manager.Refreshes())

	rec, err := f.manager.Session()
	require.NoError(t, err)
	require.NotEqual(t, res.Session.BearerToken, rec.BearerToken)
}

func TestEndToEndSessionExpiry(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.clock.Advance(2 * time.Hour)

	_, _, err := f.getMe(t)
	require.ErrorIs(t, err, session.ErrRefreshExhausted)
	require.Equal(t, int64(1), f.manager.Refreshes())
}

func TestEndToEndSignOut(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	require.NoError(t, f.manager.SignOut(context.Background()))

	visited := f.navigator.Visited()
	require.Contains(t, visited[len(visited)-1], server.RouteIDPLogout)
	_, err := f.manager.Session()
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	// The server session is gone too.
	_, err = f.api.Refresh(context.Background(), "")
	require.True(t, authapi.IsUnauthorized(err))
}

func TestEndToEndAdminUser(t *testing.T) {
	f := setupTestFixture(t)

	signInURL, err := f.manager.PrepareLogin(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.navigator.Navigate(context.Background(), signInURL+"&login_hint=grace@workbench.local"))

	res, err := f.manager.HandleCallback(context.Background(), f.navigator.Callback())
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, res.User.Role)
}

func TestAuthorizeUnknownUserIsDenied(t *testing.T) {
	f := setupTestFixture(t)

	signInURL, err := f.manager.PrepareLogin(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.navigator.Navigate(context.Background(), signInURL+"&login_hint=nobody"))

	cb := f.navigator.Callback()
	require.Equal(t, "access_denied", cb.Query().Get("error"))

	_, err = f.manager.HandleCallback(context.Background(), cb)
	require.ErrorIs(t, err, session.ErrAuthorizationDenied)
}

func TestAuthorizeRejectsUnregisteredRedirect(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Get(f.srv.URL + server.RouteIDPAuthorize + "?response_type=code&client_id=workbench&code_challenge=x&state=s&redirect_uri=" +
		url.QueryEscape("https://evil.example.com/cb"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// authorize drives the identity provider directly and returns the code.
func (f *testFixture) authorize(t *testing.T, challenge string) string {
	t.Helper()

	intent, err := f.api.LoginIntent(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.navigator.Navigate(context.Background(), session.FinalizeSignInURL(intent.SignInURL, challenge, "st")))

	cb := f.navigator.Callback()
	require.Equal(t, "st", cb.Query().Get("state"))
	code := cb.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func TestTokenVerifiesPKCE(t *testing.T) {
	f := setupTestFixture(t)

	pair, err := pkce.NewPair(pkce.MinVerifierLength)
	require.NoError(t, err)
	code := f.authorize(t, pair.Challenge)

	_, err = f.api.ExchangeToken(context.Background(), code, strings.Repeat("a", 43))
	var statusErr *authapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	require.Contains(t, statusErr.Message, "code verifier")

	// The code was consumed by the failed attempt.
	_, err = f.api.ExchangeToken(context.Background(), code, pair.Verifier)
	require.ErrorAs(t, err, &statusErr)
	require.Contains(t, statusErr.Message, "unknown or used")
}

func TestTokenConsumesCodeFromRepo(t *testing.T) {
	codes := authflowrepo.NewInMemoryRepo()
	f := setupTestFixture(t, server.WithRepos(loginsession.NewInMemoryLoginSessionRepo(), codes))

	pair, err := pkce.NewPair(pkce.DefaultVerifierLength)
	require.NoError(t, err)
	code := f.authorize(t, pair.Challenge)

	pending, err := codes.Take(code)
	require.NoError(t, err)
	require.Equal(t, "dev-researcher", pending.Subject)
	require.Equal(t, pair.Challenge, pending.CodeChallenge)
	require.Equal(t, testRedirectURL, pending.RedirectURI)
	require.NoError(t, codes.Upsert(code, pending))

	_, err = f.api.ExchangeToken(context.Background(), code, pair.Verifier)
	require.NoError(t, err)

	_, err = codes.Take(code)
	require.ErrorIs(t, err, authflowrepo.ErrNotFound)
}

func TestTokenRejectsExpiredCode(t *testing.T) {
	f := setupTestFixture(t)

	pair, err := pkce.NewPair(pkce.DefaultVerifierLength)
	require.NoError(t, err)
	code := f.authorize(t, pair.Challenge)

	f.clock.Advance(3 * time.Minute)

	_, err = f.api.ExchangeToken(context.Background(), code, pair.Verifier)
	var statusErr *authapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Contains(t, statusErr.Message, "expired")
}

func TestRefreshRequiresCSRF(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	_, err := f.api.Refresh(context.Background(), "wrong")
	var statusErr *authapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)

	rec, err := f.manager.Session()
	require.NoError(t, err)
	_, err = f.api.Refresh(context.Background(), rec.CSRFToken)
	require.NoError(t, err)
}

func TestJWKSPublishesVerificationKey(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Get(f.srv.URL + server.RouteJWKS)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jwks signing.JWKS
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, signing.RS256, jwks.Keys[0].Alg)
}

func TestEndToEndWithSharedSecret(t *testing.T) {
	t.Setenv("WORKBENCH_DEV_SIGNING_ALG", signing.HS256)
	f := setupTestFixture(t)
	f.login(t)

	status, _, err := f.getMe(t)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(f.srv.URL + server.RouteJWKS)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMeRequiresValidBearer(t *testing.T) {
	f := setupTestFixture(t)

	for _, header := range []string{"", "Bearer", "Bearer not.a.token", "Basic Zm9vOmJhcg=="} {
		req, err := http.NewRequest(http.MethodGet, f.srv.URL+server.RouteAPIMe, nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
		require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	}
}
