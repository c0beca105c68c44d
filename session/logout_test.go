package session_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/stretchr/testify/require"
)

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t)
	f.put(t, store.KeySessionToken, "h.p.s")
	f.put(t, store.KeyAPICSRFToken, testCSRF)

	var gotBearer, gotCSRF string
	f.api.logout = func(_ context.Context, bearer, csrf string) (*authapi.LogoutIntent, error) {
		gotBearer, gotCSRF = bearer, csrf
		return &authapi.LogoutIntent{LogoutURL: testLogoutURL}, nil
	}

	require.NoError(t, f.manager.SignOut(context.Background()))

	require.Equal(t, "h.p.s", gotBearer)
	require.Equal(t, testCSRF, gotCSRF)
	require.Empty(t, f.get(t, store.KeySessionToken))
	require.Empty(t, f.get(t, store.KeyAPICSRFToken))
	require.Equal(t, []string{testLogoutURL}, f.navigator.Navigations())
}

func TestSignOutFailureKeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.put(t, store.KeySessionToken, "h.p.s")
	f.put(t, store.KeyAPICSRFToken, testCSRF)
	f.api.logout = func(context.Context, string, string) (*authapi.LogoutIntent, error) {
		return nil, &authapi.StatusError{Endpoint: "/logout", StatusCode: 502}
	}

	err := f.manager.SignOut(context.Background())
	require.Error(t, err)

	require.Equal(t, "h.p.s", f.get(t, store.KeySessionToken))
	require.Equal(t, testCSRF, f.get(t, store.KeyAPICSRFToken))
	require.Empty(t, f.navigator.Navigations())
}

func TestSignOutWithoutSession(t *testing.T) {
	f := setupTestFixture(t)
	f.api.logout = func(_ context.Context, bearer, _ string) (*authapi.LogoutIntent, error) {
		require.Empty(t, bearer)
		return &authapi.LogoutIntent{LogoutURL: testLogoutURL}, nil
	}

	require.NoError(t, f.manager.SignOut(context.Background()))
	require.Equal(t, []string{testLogoutURL}, f.navigator.Navigations())
}
