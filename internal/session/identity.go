// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import "fmt"

// Role tags accepted at signup.
type Role string

const (
	RoleArtist    Role = "artist"
	RoleExecutive Role = "executive"
	RoleCopyright Role = "copyright"
	RoleProducer  Role = "producer"
	RoleManager   Role = "manager"
)

// Roles lists every accepted role in display order.
var Roles = []Role{RoleArtist, RoleExecutive, RoleCopyright, RoleProducer, RoleManager}

// ParseRole validates a role tag. An empty tag yields RoleArtist.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleArtist, nil
	}
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// PrefRole is the preference key carrying the account's role.
const PrefRole = "role"

// Identity is the authenticated principal.
type Identity struct {
	ID    string         `json:"id"`
	Email string         `json:"email"`
	Name  string         `json:"name"`
	Prefs map[string]any `json:"prefs,omitempty"`
}

// Role returns the role stored in preferences, or "" when unset.
func (i *Identity) Role() Role {
	if i == nil || i.Prefs == nil {
		return ""
	}
	if s, ok := i.Prefs[PrefRole].(string); ok {
		return Role(s)
	}
	return ""
}

// DisplayName prefers the name and falls back to email, then id.
func (i *Identity) DisplayName() string {
	switch {
	case i == nil:
		return ""
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	default:
		return i.ID
	}
}

// clone copies the identity so holders cannot mutate the stored record.
func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Prefs != nil {
		c.Prefs = make(map[string]any, len(i.Prefs))
		for k, v := range i.Prefs {
			c.Prefs[k] = v
		}
	}
	return &c
}
