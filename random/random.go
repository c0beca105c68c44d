// Package random produces cryptographically strong random bytes and strings.
// There is no fallback source: if the system CSPRNG fails, callers get the
// error.
package random

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

var (
	ErrEmptyAlphabet  = errors.New("alphabet must not be empty")
	ErrNegativeLength = errors.New("length must not be negative")
)

// Reader is the entropy source. Tests may replace it to simulate a failing
// source; production code must leave it as crypto/rand.Reader.
var Reader io.Reader = rand.Reader

// Bytes returns n bytes read from Reader.
func Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("[random.Bytes] secure source unavailable: %w", err)
	}
	return b, nil
}

// String returns a string of length characters drawn from alphabet. Each
// random byte is reduced modulo len(alphabet), which biases alphabets whose
// size does not divide 256.
func String(length int, alphabet string) (string, error) {
	if alphabet == "" {
		return "", ErrEmptyAlphabet
	}
	b, err := Bytes(length)
	if err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, v := range b {
		out[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(out), nil
}
