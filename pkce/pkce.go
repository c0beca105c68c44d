// Package pkce builds RFC 7636 code verifier/challenge pairs and the opaque
// state values that accompany an authorization redirect.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/jrsteele09/workbench-session/random"
	"github.com/pkg/errors"
)

const (
	// MethodS256 is the only challenge method this package produces.
	MethodS256 = "S256"

	MinVerifierLength     = 43
	MaxVerifierLength     = 128
	DefaultVerifierLength = 128

	// UnreservedCharset is the RFC 3986 unreserved set allowed in verifiers.
	UnreservedCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
)

var ErrInvalidVerifierLength = errors.New("code verifier length must be between 43 and 128")

// Pair is a code verifier and its S256 challenge. The verifier is secret and
// lives only until the callback has been handled.
type Pair struct {
	Verifier  string
	Challenge string
}

// NewPair generates a verifier of exactly length characters. Lengths outside
// [43,128] are rejected rather than clamped.
func NewPair(length int) (*Pair, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return nil, errors.Wrapf(ErrInvalidVerifierLength, "[pkce.NewPair] got %d", length)
	}
	verifier, err := random.String(length, UnreservedCharset)
	if err != nil {
		return nil, errors.Wrap(err, "[pkce.NewPair]")
	}
	return &Pair{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
	}, nil
}

// Challenge returns base64url(sha256(verifier)) without padding.
func Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Verify reports whether challenge was derived from verifier.
func Verify(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Challenge(verifier)), []byte(challenge)) == 1
}

// NewStateToken returns a random UUIDv4 string (122 bits of entropy) for the
// anti-CSRF state parameter.
func NewStateToken() (string, error) {
	id, err := uuid.NewRandomFromReader(random.Reader)
	if err != nil {
		return "", errors.Wrap(err, "[pkce.NewStateToken]")
	}
	return id.String(), nil
}
