package authapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/jrsteele09/workbench-session/store/memory"
	"github.com/stretchr/testify/require"
)

func cookieServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(authapi.DefaultTokenPath, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "workbench_session", Value: "s1", Path: "/", HttpOnly: true})
		writeJSON(t, w, http.StatusOK, map[string]string{"bearerToken": testBearer})
	})
	mux.HandleFunc(authapi.DefaultRefreshPath, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("workbench_session")
		if err != nil || cookie.Value != "s1" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "no session"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"bearerToken": testBearer})
	})
	mux.HandleFunc(authapi.DefaultLogoutPath, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "workbench_session", Value: "", Path: "/", MaxAge: -1})
		writeJSON(t, w, http.StatusOK, map[string]string{"logoutUrl": "https://idp/logout"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newJarClient(t *testing.T, s store.Store, baseURL string) *authapi.Client {
	t.Helper()

	jar, err := authapi.NewPersistentJar(s, baseURL)
	require.NoError(t, err)
	c, err := authapi.NewClient(baseURL, authapi.WithCookieJar(jar), authapi.WithHTTPClient(&http.Client{}))
	require.NoError(t, err)
	return c
}

func TestPersistentJarSurvivesRestart(t *testing.T) {
	srv := cookieServer(t)
	s := memory.New()

	first := newJarClient(t, s, srv.URL)
	_, err := first.ExchangeToken(context.Background(), "abc", "verifier")
	require.NoError(t, err)

	saved, err := s.Get(authapi.CookieStoreKey)
	require.NoError(t, err)
	require.Contains(t, saved, "s1")

	second := newJarClient(t, s, srv.URL)
	_, err = second.Refresh(context.Background(), testCSRF)
	require.NoError(t, err)

	_, err = second.LogoutIntent(context.Background(), testBearer, testCSRF)
	require.NoError(t, err)
	_, err = s.Get(authapi.CookieStoreKey)
	require.ErrorIs(t, err, store.ErrNotFound)

	third := newJarClient(t, s, srv.URL)
	_, err = third.Refresh(context.Background(), testCSRF)
	require.True(t, authapi.IsUnauthorized(err))
}

func TestPersistentJarIgnoresUnreadableState(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Put(authapi.CookieStoreKey, "not json"))

	jar, err := authapi.NewPersistentJar(s, "http://127.0.0.1:8080")
	require.NoError(t, err)
	u, err := url.Parse("http://127.0.0.1:8080/refresh")
	require.NoError(t, err)
	require.Empty(t, jar.Cookies(u))
}

func TestClientWithoutJarGetsOne(t *testing.T) {
	srv := cookieServer(t)

	c, err := authapi.NewClient(srv.URL, authapi.WithHTTPClient(&http.Client{}))
	require.NoError(t, err)

	_, err = c.ExchangeToken(context.Background(), "abc", "verifier")
	require.NoError(t, err)
	_, err = c.Refresh(context.Background(), testCSRF)
	require.NoError(t, err)
}
