// Package claims decodes the payload of a compact bearer token for display.
//
// Trust boundary: Decode never verifies the signature. The claims are used to
// show who is signed in and to pick a role for the UI; every protected API
// call is authorised server-side against the raw token.
package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed token")

// Claims is the typed view of the token payload.
type Claims struct {
	Subject    string              `json:"sub"`
	GivenName  string              `json:"given_name,omitempty"`
	FamilyName string              `json:"family_name,omitempty"`
	Email      string              `json:"email,omitempty"`
	Groups     []string            `json:"cognito:groups,omitempty"`
	ExpiresAt  *jwtlib.NumericDate `json:"exp,omitempty"`
	IssuedAt   *jwtlib.NumericDate `json:"iat,omitempty"`
	Issuer     string              `json:"iss,omitempty"`
	Audience   jwtlib.ClaimStrings `json:"aud,omitempty"`
}

var _ jwtlib.Claims = (*Claims)(nil)

var parser = jwtlib.NewParser(jwtlib.WithPaddingAllowed())

// Decode splits token into its three segments and unmarshals the payload.
// Any structural problem yields an error wrapping ErrMalformedToken.
func Decode(token string) (*Claims, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(segments))
	}

	payload, err := parser.DecodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url: %v", ErrMalformedToken, err)
	}

	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", ErrMalformedToken, err)
	}
	return &c, nil
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// PrimaryGroup returns the first group as given, or "" when there are none.
// Later groups are never consulted, even when the first is blank.
func (c *Claims) PrimaryGroup() string {
	if len(c.Groups) == 0 {
		return ""
	}
	return c.Groups[0]
}

func (c *Claims) GetExpirationTime() (*jwtlib.NumericDate, error) { return c.ExpiresAt, nil }
func (c *Claims) GetIssuedAt() (*jwtlib.NumericDate, error)       { return c.IssuedAt, nil }
func (c *Claims) GetNotBefore() (*jwtlib.NumericDate, error)      { return nil, nil }
func (c *Claims) GetIssuer() (string, error)                      { return c.Issuer, nil }
func (c *Claims) GetSubject() (string, error)                     { return c.Subject, nil }
func (c *Claims) GetAudience() (jwtlib.ClaimStrings, error)       { return c.Audience, nil }
