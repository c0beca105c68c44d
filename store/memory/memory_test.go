package memory_test

import (
	"testing"

	"github.com/jrsteele09/workbench-session/store"
	"github.com/jrsteele09/workbench-session/store/memory"
	"github.com/jrsteele09/workbench-session/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestInMemoryStoreRejectsEmptyKey(t *testing.T) {
	require.Error(t, memory.New().Put("", "value"))
}

func TestKeys(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Put(store.KeySessionToken, "a"))
	require.NoError(t, s.Put(store.KeyAPICSRFToken, "b"))
	require.ElementsMatch(t, []string{store.KeySessionToken, store.KeyAPICSRFToken}, s.Keys())
}
