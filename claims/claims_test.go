package claims_test

import (
	"encoding/base64"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/workbench-session/claims"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("test-signing-key")

func issueToken(t *testing.T, c *claims.Claims) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(signingKey)
	require.NoError(t, err)
	return token
}

func TestDecodeRoundTrip(t *testing.T) {
	exp := jwtlib.NewNumericDate(time.Unix(1900000000, 0))
	iat := jwtlib.NewNumericDate(time.Unix(1800000000, 0))

	tests := []struct {
		name   string
		claims claims.Claims
	}{
		{
			name: "full",
			claims: claims.Claims{
				Subject:    "user-1",
				GivenName:  "Ada",
				FamilyName: "Lovelace",
				Email:      "ada@example.com",
				Groups:     []string{"admin", "researcher"},
				ExpiresAt:  exp,
				IssuedAt:   iat,
				Issuer:     "https://auth.example.com",
				Audience:   jwtlib.ClaimStrings{"workbench"},
			},
		},
		{
			name:   "subject only",
			claims: claims.Claims{Subject: "user-2"},
		},
		{
			name: "unicode names",
			claims: claims.Claims{
				Subject:    "user-3",
				GivenName:  "Zoë",
				FamilyName: "Ångström",
				Groups:     []string{"researcher"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.claims
			out, err := claims.Decode(issueToken(t, &in))
			require.NoError(t, err)
			require.Equal(t, &in, out)
		})
	}
}

func TestDecodeIgnoresSignature(t *testing.T) {
	c := &claims.Claims{Subject: "user-1"}
	token := issueToken(t, c)

	tampered := token[:len(token)-4] + "AAAA"
	out, err := claims.Decode(tampered)
	require.NoError(t, err)
	require.Equal(t, "user-1", out.Subject)
}

func TestDecodeMalformed(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x"}`))
	notJSON := base64.RawURLEncoding.EncodeToString([]byte(`not json`))
	array := base64.RawURLEncoding.EncodeToString([]byte(`["sub"]`))

	tests := map[string]string{
		"empty":              "",
		"one segment":        "abc",
		"two segments":       "h." + payload,
		"four segments":      "h." + payload + ".s.x",
		"payload not b64":    "h.$$$.s",
		"payload not json":   "h." + notJSON + ".s",
		"payload not object": "h." + array + ".s",
		"literal h.p.s":      "h.p.s",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := claims.Decode(token)
			require.ErrorIs(t, err, claims.ErrMalformedToken)
		})
	}
}

func TestDecodeToleratesPadding(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"padded-user"}`))
	out, err := claims.Decode("h." + payload + ".s")
	require.NoError(t, err)
	require.Equal(t, "padded-user", out.Subject)
}

func TestHelpers(t *testing.T) {
	c := &claims.Claims{Groups: []string{"researcher", "admin"}}
	require.Equal(t, "researcher", c.PrimaryGroup())
	require.Equal(t, " ", (&claims.Claims{Groups: []string{" ", "admin"}}).PrimaryGroup())
	require.True(t, c.Expiry().IsZero())

	c.ExpiresAt = jwtlib.NewNumericDate(time.Unix(1900000000, 0))
	require.Equal(t, int64(1900000000), c.Expiry().Unix())

	require.Equal(t, "", (&claims.Claims{}).PrimaryGroup())
}
