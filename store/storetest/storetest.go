// Package storetest holds the behavior every store.Store implementation is
// expected to share.
package storetest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jrsteele09/workbench-session/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises the Store contract against stores produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("get missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(store.KeySessionToken)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(store.KeySessionToken, "h.p.s"))
		v, err := s.Get(store.KeySessionToken)
		require.NoError(t, err)
		require.Equal(t, "h.p.s", v)
	})

	t.Run("put replaces whole value", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(store.KeyAPICSRFToken, "first-and-longer"))
		require.NoError(t, s.Put(store.KeyAPICSRFToken, "second"))
		v, err := s.Get(store.KeyAPICSRFToken)
		require.NoError(t, err)
		require.Equal(t, "second", v)
	})

	t.Run("empty value is stored", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(store.KeyAPICSRFToken, ""))
		v, err := s.Get(store.KeyAPICSRFToken)
		require.NoError(t, err)
		require.Equal(t, "", v)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(store.KeyPendingPKCEVerifier, "verifier"))
		require.NoError(t, s.Delete(store.KeyPendingPKCEVerifier))
		_, err := s.Get(store.KeyPendingPKCEVerifier)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Delete(store.KeyPendingPKCEVerifier), "deleting an absent key")
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(store.KeyPendingPKCEVerifier, "v1"))
		require.NoError(t, s.Put(store.KeyPendingStateVerifier, "s1"))
		require.NoError(t, s.Delete(store.KeyPendingPKCEVerifier))

		v, err := s.Get(store.KeyPendingStateVerifier)
		require.NoError(t, err)
		require.Equal(t, "s1", v)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("key-%d", i)
				assert.NoError(t, s.Put(key, fmt.Sprintf("value-%d", i)))
				_, err := s.Get(key)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		for i := 0; i < 16; i++ {
			v, err := s.Get(fmt.Sprintf("key-%d", i))
			require.NoError(t, err)
			require.Equal(t, fmt.Sprintf("value-%d", i), v)
		}
	})
}

// RunPersistence checks that values written through one store are visible to
// a second store opened on the same medium, as after a process restart.
func RunPersistence(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	first := open(t)
	require.NoError(t, first.Put(store.KeySessionToken, "h.p.s"))
	require.NoError(t, first.Put(store.KeyPendingStateVerifier, "state"))
	require.NoError(t, first.Delete(store.KeyPendingStateVerifier))
	closeIfPossible(t, first)

	second := open(t)
	v, err := second.Get(store.KeySessionToken)
	require.NoError(t, err)
	require.Equal(t, "h.p.s", v)

	_, err = second.Get(store.KeyPendingStateVerifier)
	require.ErrorIs(t, err, store.ErrNotFound)
	closeIfPossible(t, second)
}

func closeIfPossible(t *testing.T, s store.Store) {
	if c, ok := s.(interface{ Close() error }); ok {
		require.NoError(t, c.Close())
	}
}
