// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"sync"

	"nort/cli/internal/logging"
	"nort/cli/internal/session"

	"github.com/pterm/pterm"
)

// SessionTokens reports whether a session token is still stored.
type SessionTokens interface {
	LoadSessionToken() (string, error)
}

// FlagCache mirrors the session store into the keychain.
//
// An initialized but anonymous store clears the summary only once no session
// token remains. A start that could not reach the service keeps both, so the
// summary can still answer offline.
type FlagCache struct {
	secrets Secrets
	log     *pterm.Logger

	mu    sync.Mutex
	last  State
	unsub func()
}

// NewFlagCache subscribes a cache to store. Only initialized states are
// written, so the pending startup state never overwrites a previous summary.
func NewFlagCache(store session.Reader, secrets Secrets, log *pterm.Logger) *FlagCache {
	if log == nil {
		log = logging.Discard()
	}
	c := &FlagCache{secrets: secrets, log: log}
	c.unsub = store.Subscribe(c.observe)
	return c
}

// Cached returns the last persisted summary.
func (c *FlagCache) Cached() (State, error) {
	return Load(c.secrets)
}

// Close stops mirroring.
func (c *FlagCache) Close() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *FlagCache) observe(st session.State) {
	if !st.Initialized {
		return
	}
	next := summarize(st.Identity)

	c.mu.Lock()
	defer c.mu.Unlock()
	if next == c.last && c.last.LoggedIn {
		return
	}
	var err error
	switch {
	case next.LoggedIn:
		err = Save(c.secrets, next)
	case c.tokenStored():
		c.log.Debug("keeping cached auth state while a session token is stored")
		return
	default:
		err = Clear(c.secrets)
	}
	if err != nil {
		c.log.Warn("could not update cached auth state", c.log.Args("error", err.Error()))
		return
	}
	c.last = next
}

func (c *FlagCache) tokenStored() bool {
	ts, ok := c.secrets.(SessionTokens)
	if !ok {
		return false
	}
	tok, err := ts.LoadSessionToken()
	return err == nil && tok != ""
}

func summarize(id *session.Identity) State {
	if id == nil {
		return State{}
	}
	return State{
		LoggedIn: true,
		Account:  id.ID,
		Email:    id.Email,
		Name:     id.Name,
		Role:     string(id.Role()),
	}
}
