package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/workbench-session/claims"
	"github.com/jrsteele09/workbench-session/server"
	"github.com/jrsteele09/workbench-session/server/signing"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	tests := []struct {
		name  string
		alg   string
		other func(t *testing.T) signing.Signer
	}{
		{
			name: "HS256",
			alg:  signing.HS256,
			other: func(t *testing.T) signing.Signer {
				return signing.NewHMACSigner("other")
			},
		},
		{
			name: "RS256",
			alg:  signing.RS256,
			other: func(t *testing.T) signing.Signer {
				s, err := signing.New(signing.RS256, "", "")
				require.NoError(t, err)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
			signer, err := signing.New(tt.alg, "secret", "")
			require.NoError(t, err)
			issuer := server.NewTokenIssuer(signer, "Workbench", 5*time.Minute, clock.Now)
			user := server.DefaultDevUsers()[1]

			token, err := issuer.Issue(user)
			require.NoError(t, err)

			c, err := issuer.Verify(ctx, token)
			require.NoError(t, err)
			require.Equal(t, user.ID, c.Subject)
			require.Equal(t, user.Email, c.Email)
			require.Equal(t, user.Groups, c.Groups)

			decoded, err := claims.Decode(token)
			require.NoError(t, err)
			require.Equal(t, clock.Now().Add(5*time.Minute).Unix(), decoded.Expiry().Unix())

			_, err = server.NewTokenIssuer(tt.other(t), "Workbench", 5*time.Minute, clock.Now).Verify(ctx, token)
			require.Error(t, err, "wrong key")

			_, err = server.NewTokenIssuer(signer, "Elsewhere", 5*time.Minute, clock.Now).Verify(ctx, token)
			require.Error(t, err, "wrong issuer")

			later := &fakeClock{now: clock.Now().Add(6 * time.Minute)}
			_, err = server.NewTokenIssuer(signer, "Workbench", 5*time.Minute, later.Now).Verify(ctx, token)
			require.Error(t, err, "expired")
		})
	}
}

func TestIssuerJWKS(t *testing.T) {
	rsa, err := signing.New(signing.RS256, "", "")
	require.NoError(t, err)
	jwks, ok := server.NewTokenIssuer(rsa, "Workbench", time.Minute, nil).JWKS()
	require.True(t, ok)
	require.Len(t, jwks.Keys, 1)

	_, ok = server.NewTokenIssuer(signing.NewHMACSigner("secret"), "Workbench", time.Minute, nil).JWKS()
	require.False(t, ok)
}
