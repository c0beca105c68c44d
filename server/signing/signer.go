// Package signing holds the bearer token signers of the development
// coordination server.
package signing

import (
	"crypto"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey returns the key a parsed token is verified with
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// AsymmetricSigner is a Signer whose verification key can be published.
type AsymmetricSigner interface {
	Signer
	PublicKey() crypto.PublicKey
	GetJWKS() JWKS
}

// New builds the signer for alg. RS256 loads keyFile when set and otherwise
// generates a key pair; HS256 signs with secret.
func New(alg, secret, keyFile string) (Signer, error) {
	switch alg {
	case HS256:
		if secret == "" {
			return nil, errors.New("[signing.New] HS256 needs a secret")
		}
		return NewHMACSigner(secret), nil

	case RS256:
		if keyFile == "" {
			keyPair, err := GenerateRSAKeyPair("", 2048)
			if err != nil {
				return nil, errors.Wrap(err, "[signing.New]")
			}
			return NewKeyPairSigner(keyPair), nil
		}
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, errors.Wrap(err, "[signing.New] read key file")
		}
		keyPair, err := LoadKeyPairFromPEM("", string(data))
		if err != nil {
			return nil, errors.Wrapf(err, "[signing.New] load %s", keyFile)
		}
		return NewKeyPairSigner(keyPair), nil

	default:
		return nil, errors.Errorf("[signing.New] unsupported algorithm %q", alg)
	}
}

// HMACSigner signs with a shared secret using HS256.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// KeyPairSigner implements Signer using RSA with RS256
type KeyPairSigner struct {
	keyPair *KeyPair
}

var _ AsymmetricSigner = (*KeyPairSigner)(nil)

// NewKeyPairSigner creates a new key pair signer with the given key pair
func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

func (a *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(a.keyPair.GetSigningMethod(), claims)
	token.Header["kid"] = a.keyPair.KeyID

	signed, err := token.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with asymmetric key")
	}
	return signed, nil
}

func (a *KeyPairSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return a.keyPair.PublicKey, nil
}

func (a *KeyPairSigner) GetSigningMethod() jwt.SigningMethod {
	return a.keyPair.GetSigningMethod()
}

func (a *KeyPairSigner) PublicKey() crypto.PublicKey {
	return a.keyPair.Public()
}

// GetJWKS returns the JSON Web Key Set for the signer's key.
func (a *KeyPairSigner) GetJWKS() JWKS {
	return JWKS{Keys: []JWK{a.keyPair.ToJWK()}}
}
