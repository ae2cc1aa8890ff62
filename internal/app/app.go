// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app wires one session store, gateway and route guard per process
// from configuration, and tears them down on exit.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"nort/cli/internal/accountdb"
	"nort/cli/internal/auth"
	"nort/cli/internal/backend"
	"nort/cli/internal/config"
	"nort/cli/internal/gateway"
	"nort/cli/internal/guard"
	"nort/cli/internal/keychain"
	"nort/cli/internal/logging"
	"nort/cli/internal/session"
	"nort/cli/internal/xdg"

	"github.com/pterm/pterm"
)

// Options configure New.
type Options struct {
	Config config.Config
	Logger *pterm.Logger
	// HTTPClient overrides the client used by HTTP bindings.
	HTTPClient *http.Client
}

// App is the per-process container.
type App struct {
	Config   config.Config
	Log      *pterm.Logger
	Upstream backend.API
	Keychain *keychain.Manager
	Store    *session.Store
	Gateway  *gateway.Gateway
	Flags    *auth.FlagCache

	mu      sync.Mutex
	guard   *guard.Guard
	closers []func()
}

// New builds the container. Nothing is fetched yet; call Gateway.Bootstrap.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	a := &App{Config: cfg, Log: log}

	up, closeUp, err := NewUpstream(ctx, cfg, log, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	a.Upstream = up
	a.onClose(closeUp)

	km, err := openKeychain(cfg.Keyring, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	a.Keychain = km

	a.Store = session.NewStore()
	a.onClose(a.Store.Close)
	a.Flags = auth.NewFlagCache(a.Store, km, log)
	a.onClose(a.Flags.Close)
	a.Gateway = gateway.New(up, a.Store, km, gateway.WithLogger(log))
	return a, nil
}

// NewUpstream constructs the identity binding selected by cfg.Transport. The
// returned function releases its resources.
func NewUpstream(ctx context.Context, cfg config.Config, log *pterm.Logger, client *http.Client) (backend.API, func(), error) {
	if cfg.Transport == backend.TransportPostgres {
		dir, closeDir, err := accountdb.Open(ctx, accountdb.Options{
			DatabaseURL:   cfg.Database.URL,
			RedisURL:      cfg.Database.RedisURL,
			SessionTTL:    cfg.Database.SessionTTL.Std(),
			SweepInterval: cfg.Database.SweepInterval.Std(),
			Logger:        log,
		})
		if err != nil {
			return nil, nil, err
		}
		return dir, closeDir, nil
	}

	if client == nil && cfg.API.Timeout > 0 {
		client = &http.Client{Timeout: cfg.API.Timeout.Std()}
	}
	up, err := backend.New(backend.Options{
		Transport: cfg.Transport,
		Endpoint:  cfg.Appwrite.Endpoint,
		Project:   cfg.Appwrite.Project,
		Platform:  cfg.Appwrite.Platform,
		BaseURL:   cfg.API.BaseURL,
		Endpoints: cfg.API.Endpoints,
		Client:    client,
	})
	if err != nil {
		return nil, nil, err
	}
	return up, func() {}, nil
}

func openKeychain(kc config.KeyringConfig, log *pterm.Logger) (*keychain.Manager, error) {
	opts := keychain.Options{
		Backend:      kc.Backend,
		FileDir:      kc.FileDir,
		FilePassword: kc.Password,
		Logger:       log,
	}
	if opts.Backend == keychain.BackendFile && opts.FileDir == "" {
		dir, err := xdg.DataDir()
		if err != nil {
			return nil, err
		}
		opts.FileDir = dir
	}
	return keychain.NewManager(opts)
}

// AttachGuard starts a route guard at start that redirects through nav.
// A previously attached guard is closed.
func (a *App) AttachGuard(nav guard.Navigator, start guard.Location) *guard.Guard {
	g := guard.New(a.Store, nav, start)
	a.mu.Lock()
	prev := a.guard
	a.guard = g
	a.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return g
}

// Guard returns the attached guard, or nil.
func (a *App) Guard() *guard.Guard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.guard
}

func (a *App) onClose(fn func()) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.closers = append(a.closers, fn)
	a.mu.Unlock()
}

// Close tears the container down in reverse construction order. It is safe
// to call more than once.
func (a *App) Close() {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	g := a.guard
	a.guard = nil
	a.mu.Unlock()

	if g != nil {
		g.Close()
	}
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
