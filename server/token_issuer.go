package server

import (
	"context"
	"crypto"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/workbench-session/claims"
	"github.com/jrsteele09/workbench-session/server/signing"
	"github.com/pkg/errors"
)

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer struct {
	signer      signing.Signer
	issuer      string
	ttl         time.Duration
	nowTimeFunc func() time.Time

	// Set when the signer's key can be published. Tokens are then verified
	// the way a relying party would, against the static public key.
	verifier *oidc.IDTokenVerifier
}

// NewTokenIssuer creates an issuer. ttl is the bearer token lifetime.
func NewTokenIssuer(signer signing.Signer, issuer string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	ti := &TokenIssuer{
		signer:      signer,
		issuer:      issuer,
		ttl:         ttl,
		nowTimeFunc: now,
	}

	if asym, ok := signer.(signing.AsymmetricSigner); ok {
		keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{asym.PublicKey()}}
		ti.verifier = oidc.NewVerifier(issuer, keySet, &oidc.Config{
			SkipClientIDCheck:    true,
			SupportedSigningAlgs: []string{signer.GetSigningMethod().Alg()},
			Now:                  now,
		})
	}
	return ti
}

// Issue creates a bearer token for user.
func (ti *TokenIssuer) Issue(user DevUser) (string, error) {
	now := ti.nowTimeFunc()
	c := &claims.Claims{
		Subject:    user.ID,
		GivenName:  user.GivenName,
		FamilyName: user.FamilyName,
		Email:      user.Email,
		Groups:     user.Groups,
		Issuer:     ti.issuer,
		IssuedAt:   jwtlib.NewNumericDate(now),
		ExpiresAt:  jwtlib.NewNumericDate(now.Add(ti.ttl)),
	}

	signed, err := ti.signer.Sign(c)
	if err != nil {
		return "", errors.Wrap(err, "[TokenIssuer.Issue]")
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of a bearer token.
func (ti *TokenIssuer) Verify(ctx context.Context, token string) (*claims.Claims, error) {
	c := &claims.Claims{}

	if ti.verifier != nil {
		idToken, err := ti.verifier.Verify(ctx, token)
		if err != nil {
			return nil, errors.Wrap(err, "[TokenIssuer.Verify]")
		}
		if err := idToken.Claims(c); err != nil {
			return nil, errors.Wrap(err, "[TokenIssuer.Verify] claims")
		}
		return c, nil
	}

	_, err := jwtlib.ParseWithClaims(token, c, ti.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{ti.signer.GetSigningMethod().Alg()}),
		jwtlib.WithIssuer(ti.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(ti.nowTimeFunc),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[TokenIssuer.Verify]")
	}
	return c, nil
}

// JWKS returns the published key set, or false for a shared-secret signer.
func (ti *TokenIssuer) JWKS() (signing.JWKS, bool) {
	asym, ok := ti.signer.(signing.AsymmetricSigner)
	if !ok {
		return signing.JWKS{}, false
	}
	return asym.GetJWKS(), true
}
