// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gateway performs the four auth operations against the remote identity
// service and is the only code path that writes to the session store.
//
// Every operation resolves to a Result; remote failures never escape as bare
// errors. The store is written only after a call has fully resolved, so a
// cancelled or failed request leaves no partial state behind.
package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"nort/cli/internal/backend"
	autherrors "nort/cli/internal/errors"
	"nort/cli/internal/logging"
	"nort/cli/internal/session"

	"github.com/pterm/pterm"
)

// TokenStore persists the opaque session token between calls (and processes).
type TokenStore interface {
	LoadSessionToken() (string, error)
	SaveSessionToken(token string) error
	ClearSessionToken() error
}

// Gateway mediates between screens, the remote identity service and the store.
type Gateway struct {
	be     backend.API
	store  *session.Store
	tokens TokenStore
	log    *pterm.Logger

	bootOnce sync.Once
	bootRes  Result
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *pterm.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// New constructs a gateway. tokens may be nil, in which case the token lives
// only in memory for the lifetime of the gateway.
func New(be backend.API, store *session.Store, tokens TokenStore, opts ...Option) *Gateway {
	if tokens == nil {
		tokens = &MemoryTokens{}
	}
	g := &Gateway{be: be, store: store, tokens: tokens, log: logging.Discard()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Bootstrap seeds the store from the current remote session and marks it
// initialized. Only the first call performs the fetch; later calls return the
// same result. A stored token the service rejects is discarded; one that could
// not be checked is kept for the next start.
func (g *Gateway) Bootstrap(ctx context.Context) Result {
	g.bootOnce.Do(func() {
		res := g.FetchCurrentIdentity(ctx)
		if res.Err != nil && backend.IsRejection(res.Err) {
			if err := g.tokens.ClearSessionToken(); err != nil {
				g.log.Warn("could not clear rejected session token", g.log.Args("error", err.Error()))
			}
		}
		g.store.SetIdentity(res.Identity)
		g.store.MarkInitialized()
		g.bootRes = res
	})
	return g.bootRes
}

// FetchCurrentIdentity resolves the caller's current session. Any failure,
// including having no stored token, yields a no_session result.
// It does not touch the store.
func (g *Gateway) FetchCurrentIdentity(ctx context.Context) Result {
	token, err := g.tokens.LoadSessionToken()
	if err != nil || token == "" {
		g.log.Debug("no stored session token", g.log.Args("error", errString(err)))
		return failure(autherrors.NoSession, "no active session", err)
	}
	acct, err := g.be.GetAccount(ctx, token)
	if err != nil {
		g.log.Debug("current session not usable", g.log.Args("error", logging.Mask(err.Error())))
		return failure(autherrors.NoSession, "no active session", err)
	}
	return success(toIdentity(acct))
}

// Login creates a remote session and loads the identity behind it.
// On failure the store's identity is cleared.
func (g *Gateway) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return failure(autherrors.Validation, "email and password are required", nil)
	}
	res := g.login(ctx, email, password)
	g.store.SetIdentity(res.Identity)
	return res
}

func (g *Gateway) login(ctx context.Context, email, password string) Result {
	s, err := g.be.CreateSession(ctx, email, password)
	if err != nil {
		g.log.Warn("login failed", g.log.Args("email", email, "error", logging.Mask(err.Error())))
		return classify("login failed", err)
	}
	acct, err := g.be.GetAccount(ctx, s.Token)
	if err != nil {
		g.log.Warn("session created but account fetch failed", g.log.Args("email", email, "error", logging.Mask(err.Error())))
		// Do not leave an orphaned remote session behind.
		_ = g.be.DeleteSession(ctx, s.Token)
		return classify("login failed", err)
	}
	if err := g.tokens.SaveSessionToken(s.Token); err != nil {
		// The identity stays valid for this process, but a later logout can only clear local state.
		g.log.Warn("could not persist session token", g.log.Args("error", err.Error()))
	}
	g.log.Info("logged in", g.log.Args("user", acct.ID))
	return success(toIdentity(acct))
}

// Signup registers an account and then logs in with the same credentials.
// Validation happens before any remote call. A rejected account creation does
// not touch the store.
func (g *Gateway) Signup(ctx context.Context, email, password, displayName, role string) Result {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	switch {
	case email == "":
		return failure(autherrors.Validation, "email is required", nil)
	case password == "":
		return failure(autherrors.Validation, "password is required", nil)
	case displayName == "":
		return failure(autherrors.Validation, "display name is required", nil)
	}
	r, err := session.ParseRole(role)
	if err != nil {
		return failure(autherrors.Validation, "invalid role", err)
	}

	acct, err := g.be.CreateAccount(ctx, backend.NewAccount{
		Email:    email,
		Password: password,
		Name:     displayName,
		Role:     string(r),
	})
	if err != nil {
		g.log.Warn("signup rejected", g.log.Args("email", email, "error", logging.Mask(err.Error())))
		if backend.IsRejection(err) {
			return failure(autherrors.AccountRejected, "account could not be created", err)
		}
		return failure(autherrors.TransportFailed, "account could not be created", err)
	}
	g.log.Info("account created", g.log.Args("user", acct.ID, "role", string(r)))

	res := g.login(ctx, email, password)
	if res.OK() {
		res.Identity = g.ensureRole(ctx, res.Identity, r)
	}
	g.store.SetIdentity(res.Identity)
	return res
}

// ensureRole writes the role preference on bindings that keep preferences
// apart from account creation. Failure is logged and the identity returned as is.
func (g *Gateway) ensureRole(ctx context.Context, id *session.Identity, r session.Role) *session.Identity {
	if id.Role() == r {
		return id
	}
	pu, ok := g.be.(backend.PrefsUpdater)
	if !ok {
		return id
	}
	token, err := g.tokens.LoadSessionToken()
	if err != nil || token == "" {
		return id
	}
	prefs := make(map[string]any, len(id.Prefs)+1)
	for k, v := range id.Prefs {
		prefs[k] = v
	}
	prefs[session.PrefRole] = string(r)
	acct, err := pu.UpdatePrefs(ctx, token, prefs)
	if err != nil {
		g.log.Warn("could not store role preference", g.log.Args("user", id.ID, "error", logging.Mask(err.Error())))
		return id
	}
	return toIdentity(acct)
}

// Logout deletes the remote session and always clears local state, even when
// the remote call fails. The remote error, if any, is returned in Err; a
// session the service no longer knows counts as deleted.
func (g *Gateway) Logout(ctx context.Context) Result {
	token, _ := g.tokens.LoadSessionToken()

	var remoteErr error
	if token != "" {
		remoteErr = g.be.DeleteSession(ctx, token)
		if errors.Is(remoteErr, backend.ErrUnauthorized) {
			g.log.Debug("remote session already gone", g.log.Args("error", logging.Mask(remoteErr.Error())))
			remoteErr = nil
		}
	}
	if err := g.tokens.ClearSessionToken(); err != nil {
		g.log.Warn("could not clear stored session token", g.log.Args("error", err.Error()))
	}
	g.store.SetIdentity(nil)

	if remoteErr != nil {
		g.log.Warn("remote logout failed; local session cleared", g.log.Args("error", logging.Mask(remoteErr.Error())))
		return classify("remote logout failed", remoteErr)
	}
	g.log.Info("logged out")
	return Result{}
}

// classify maps a backend error onto the auth error taxonomy.
func classify(msg string, err error) Result {
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrInvalid) {
		return failure(autherrors.AuthenticationFailed, msg, err)
	}
	return failure(autherrors.TransportFailed, msg, err)
}

func toIdentity(a backend.Account) *session.Identity {
	return &session.Identity{ID: a.ID, Email: a.Email, Name: a.Name, Prefs: a.Prefs}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
