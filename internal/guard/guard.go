// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package guard keeps the current navigation location consistent with the
// session: public screens for visitors, protected screens for signed-in users.
//
// The guard is inert until the session store has been initialized. It never
// makes remote calls and never fails; its only effect is a Replace on the
// Navigator.
package guard

import (
	"sync"

	"nort/cli/internal/session"
)

// Navigator performs a history-replacing redirect.
type Navigator interface {
	Replace(target Location)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Location)

// Replace calls f(target).
func (f NavigatorFunc) Replace(target Location) { f(target) }

// Phase is the guard's view of the session.
type Phase int

const (
	Pending Phase = iota
	Unauthenticated
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Phase    Phase
	Redirect bool
	Target   Location
}

// Guard observes a session store and the current location.
type Guard struct {
	mu      sync.Mutex
	store   session.Reader
	nav     Navigator
	current Location
	unsub   func()
}

// New creates a guard at the start location and subscribes it to store.
// The starting location is evaluated immediately.
func New(store session.Reader, nav Navigator, start Location) *Guard {
	g := &Guard{store: store, nav: nav, current: start}
	g.unsub = store.Subscribe(func(st session.State) { g.apply(st) })
	g.Evaluate()
	return g
}

// Current returns the location the guard believes is displayed.
func (g *Guard) Current() Location {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Navigate records a user navigation and re-evaluates. The returned decision
// reports whether the guard redirected away from loc.
func (g *Guard) Navigate(loc Location) Decision {
	g.mu.Lock()
	g.current = loc
	g.mu.Unlock()
	return g.Evaluate()
}

// Evaluate re-checks the current location against the store.
func (g *Guard) Evaluate() Decision {
	return g.apply(g.store.State())
}

// Close stops observing the store.
func (g *Guard) Close() {
	g.mu.Lock()
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (g *Guard) apply(st session.State) Decision {
	g.mu.Lock()
	d := decide(st, g.current)
	if d.Redirect {
		g.current = d.Target
	}
	g.mu.Unlock()

	if d.Redirect && g.nav != nil {
		g.nav.Replace(d.Target)
	}
	return d
}

// decide is the pure phase table.
func decide(st session.State, current Location) Decision {
	switch {
	case !st.Initialized:
		return Decision{Phase: Pending}
	case !st.Authenticated():
		d := Decision{Phase: Unauthenticated}
		if !current.Public && current != PublicEntry {
			d.Redirect, d.Target = true, PublicEntry
		}
		return d
	default:
		d := Decision{Phase: Authenticated}
		if current.Public && current != ProtectedEntry {
			d.Redirect, d.Target = true, ProtectedEntry
		}
		return d
	}
}
