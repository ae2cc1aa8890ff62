// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth persists a small summary of the session so that commands can
// answer "am I logged in" without a network round-trip.
//
// The summary is a cache, never an authority: the session store, fed by the
// gateway, decides whether a user is authenticated. The cache only mirrors it.
package auth

import (
	"encoding/json"
	"fmt"
)

// Secrets is the slice of the keychain this package needs.
type Secrets interface {
	SaveAuthState(data []byte) error
	LoadAuthState() ([]byte, error)
	ClearAuthState() error
}

// State represents persisted authentication state for the current user.
type State struct {
	LoggedIn bool   `json:"logged_in"`
	Account  string `json:"account,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Load reads the auth state. Missing state yields the zero value.
func Load(s Secrets) (State, error) {
	var st State
	data, err := s.LoadAuthState()
	if err != nil {
		return st, err
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode auth state: %w", err)
	}
	return st, nil
}

// Save writes the auth state.
func Save(s Secrets, st State) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return s.SaveAuthState(b)
}

// Clear removes the auth state.
func Clear(s Secrets) error {
	return s.ClearAuthState()
}
