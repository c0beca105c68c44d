package users

import (
	"errors"
	"strings"

	"github.com/jrsteele09/workbench-session/claims"
)

// Role is the workbench role shown in the UI. It is taken from the first
// identity-provider group on the token.
type Role string

const (
	RoleAdmin      Role = "admin"      // Can manage workbench projects and members
	RoleResearcher Role = "researcher" // Regular workbench user

	// DefaultRole applies when the token carries no groups.
	DefaultRole = RoleResearcher
)

var ErrNoClaims = errors.New("no claims to build user from")

// User is the signed-in user as displayed by the application. It is always
// rebuilt from the current session token and never stored on its own.
type User struct {
	ID         string `json:"id"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       Role   `json:"role"`
}

// FromClaims maps decoded claims onto a User. A missing or empty groups list
// falls back to DefaultRole.
func FromClaims(c *claims.Claims) (*User, error) {
	if c == nil {
		return nil, ErrNoClaims
	}
	return &User{
		ID:         c.Subject,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
		Email:      c.Email,
		Role:       RoleFromGroup(c.PrimaryGroup()),
	}, nil
}

// RoleFromGroup maps a group name onto a Role. Known roles are matched
// case-insensitively; unknown groups are kept verbatim.
func RoleFromGroup(group string) Role {
	switch strings.ToLower(strings.TrimSpace(group)) {
	case "":
		return DefaultRole
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleResearcher):
		return RoleResearcher
	}
	return Role(group)
}

// DisplayName returns "Given Family", falling back to the email then the ID.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.GivenName + " " + u.FamilyName)
	switch {
	case name != "":
		return name
	case u.Email != "":
		return u.Email
	}
	return u.ID
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
