package server

import "strings"

// DevUser is an identity the stand-in identity provider can sign in as.
type DevUser struct {
	ID         string
	GivenName  string
	FamilyName string
	Email      string
	Groups     []string
}

// DefaultDevUsers is the built-in directory. The first entry is used when
// the authorize request carries no login_hint.
func DefaultDevUsers() []DevUser {
	return []DevUser{
		{ID: "dev-researcher", GivenName: "Rosalind", FamilyName: "Franklin", Email: "rosalind@workbench.local", Groups: []string{"researcher"}},
		{ID: "dev-admin", GivenName: "Grace", FamilyName: "Hopper", Email: "grace@workbench.local", Groups: []string{"admin", "researcher"}},
		{ID: "dev-nogroups", GivenName: "Alan", FamilyName: "Turing", Email: "alan@workbench.local"},
	}
}

// findUser matches hint against user IDs and emails, case-insensitively.
func findUser(directory []DevUser, hint string) (DevUser, bool) {
	if len(directory) == 0 {
		return DevUser{}, false
	}
	if hint == "" {
		return directory[0], true
	}
	for _, u := range directory {
		if strings.EqualFold(u.ID, hint) || strings.EqualFold(u.Email, hint) {
			return u, true
		}
	}
	return DevUser{}, false
}

func (s *Server) userByID(id string) (DevUser, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return DevUser{}, false
}
