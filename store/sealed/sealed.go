// Package sealed wraps a store.Store so that every value is encrypted at
// rest with XChaCha20-Poly1305. The key is derived from a passphrase with
// Argon2id; the salt is kept in the wrapped store under SaltKey.
package sealed

import (
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jrsteele09/workbench-session/random"
	"github.com/jrsteele09/workbench-session/store"
)

// SaltKey is reserved in the wrapped store.
const SaltKey = "__seal_salt"

const (
	saltLength    = 16
	argonTime     = 1
	argonMemoryKB = 64 * 1024
	argonThreads  = 4
)

var (
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")
	ErrUnseal          = errors.New("unable to unseal value")
	ErrReservedKey     = errors.New("key is reserved")
)

var _ store.Store = (*Store)(nil)

// Store seals values before handing them to the wrapped store.
type Store struct {
	inner store.Store
	aead  cipher.AEAD
}

// New wraps inner. The first call against an empty inner store generates and
// persists a salt; later calls reuse it, so the same passphrase opens the
// same values after a restart.
func New(inner store.Store, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[sealed.New] %w", err)
	}
	return &Store{inner: inner, aead: aead}, nil
}

func loadOrCreateSalt(inner store.Store) ([]byte, error) {
	encoded, err := inner.Get(SaltKey)
	if err == nil {
		salt, decodeErr := base64.RawStdEncoding.DecodeString(encoded)
		if decodeErr != nil || len(salt) != saltLength {
			return nil, fmt.Errorf("[sealed.New] corrupt salt: %w", ErrUnseal)
		}
		return salt, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("[sealed.New] read salt: %w", err)
	}

	salt, err := random.Bytes(saltLength)
	if err != nil {
		return nil, fmt.Errorf("[sealed.New] %w", err)
	}
	if err := inner.Put(SaltKey, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("[sealed.New] write salt: %w", err)
	}
	return salt, nil
}

// Put seals value, binding it to key so sealed values cannot be swapped
// between keys.
func (s *Store) Put(key, value string) error {
	if key == SaltKey {
		return ErrReservedKey
	}
	nonce, err := random.Bytes(s.aead.NonceSize())
	if err != nil {
		return fmt.Errorf("[sealed.Store.Put] %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Put(key, base64.RawStdEncoding.EncodeToString(sealed))
}

func (s *Store) Get(key string) (string, error) {
	if key == SaltKey {
		return "", ErrReservedKey
	}
	encoded, err := s.inner.Get(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("[sealed.Store.Get] %s: %w", key, ErrUnseal)
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("[sealed.Store.Get] %s: %w", key, ErrUnseal)
	}
	return string(plain), nil
}

func (s *Store) Delete(key string) error {
	if key == SaltKey {
		return ErrReservedKey
	}
	return s.inner.Delete(key)
}

// Close closes the wrapped store when it supports closing.
func (s *Store) Close() error {
	if c, ok := s.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
