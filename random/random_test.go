package random_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jrsteele09/workbench-session/random"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestBytes(t *testing.T) {
	b, err := random.Bytes(32)
	require.NoError(t, err)
	require.Len(t, b, 32)

	other, err := random.Bytes(32)
	require.NoError(t, err)
	require.NotEqual(t, b, other)

	empty, err := random.Bytes(0)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = random.Bytes(-1)
	require.ErrorIs(t, err, random.ErrNegativeLength)
}

func TestString(t *testing.T) {
	const alphabet = "abc"
	s, err := random.String(200, alphabet)
	require.NoError(t, err)
	require.Len(t, s, 200)
	for _, r := range s {
		require.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}

	_, err = random.String(10, "")
	require.ErrorIs(t, err, random.ErrEmptyAlphabet)
}

func TestFailingSourceIsLoud(t *testing.T) {
	previous := random.Reader
	random.Reader = failingReader{}
	t.Cleanup(func() { random.Reader = previous })

	_, err := random.Bytes(16)
	require.Error(t, err)
	require.Contains(t, err.Error(), "entropy exhausted")

	_, err = random.String(16, "ab")
	require.Error(t, err)
}
