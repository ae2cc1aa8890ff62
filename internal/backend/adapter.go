// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with
// the remote identity service. It defines the four semantic operations the auth
// gateway depends on and ships two HTTP bindings: the hosted Appwrite account API
// and the NORT /api proxy.
package backend

import (
	"context"
	"time"
)

// API defines the remote identity operations the client depends on.
// Implementations may call real HTTP endpoints, a database, or provide fakes for tests.
//
// Service-level rejections are reported as ErrUnauthorized, ErrConflict or
// ErrInvalid (wrapped with detail); anything else is a transport or service fault.
type API interface {
	// CreateSession exchanges email and password for a session.
	CreateSession(ctx context.Context, email, password string) (Session, error)
	// GetAccount resolves the account owning the session token.
	GetAccount(ctx context.Context, token string) (Account, error)
	// DeleteSession invalidates the session token.
	DeleteSession(ctx context.Context, token string) error
	// CreateAccount registers a new account. It does not start a session.
	CreateAccount(ctx context.Context, acct NewAccount) (Account, error)
}

// PrefsUpdater is implemented by bindings that store preferences separately
// from account creation.
type PrefsUpdater interface {
	UpdatePrefs(ctx context.Context, token string, prefs map[string]any) (Account, error)
}

// Account is the identity record as returned by a binding.
type Account struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Prefs     map[string]any `json:"prefs,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
}

// Session is an established remote session. Token is opaque to the client and
// must be presented on later calls.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewAccount carries the signup form.
type NewAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"username"`
	Role     string `json:"role"`
}
