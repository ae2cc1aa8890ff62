// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package guard

import (
	"testing"

	"nort/cli/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	replaced []Location
}

func (r *recorder) Replace(target Location) { r.replaced = append(r.replaced, target) }

func loc(t *testing.T, path string) Location {
	t.Helper()
	l, ok := Lookup(path)
	require.True(t, ok, "unknown route %q", path)
	return l
}

func TestGuard_PendingNeverRedirects(t *testing.T) {
	store := session.NewStore()
	nav := &recorder{}
	g := New(store, nav, loc(t, "/explore"))
	defer g.Close()

	d := g.Navigate(loc(t, "/profile"))
	assert.Equal(t, Pending, d.Phase)
	assert.False(t, d.Redirect)

	store.SetIdentity(&session.Identity{ID: "u1"})
	assert.Empty(t, nav.replaced, "no redirects before initialization")
	assert.Equal(t, PathProfile, g.Current().Path)
}

func TestGuard_StartupWithoutSession(t *testing.T) {
	store := session.NewStore()
	nav := &recorder{}
	g := New(store, nav, loc(t, "/"))
	defer g.Close()

	store.SetIdentity(nil)
	store.MarkInitialized()

	assert.Equal(t, []Location{PublicEntry}, nav.replaced)
	assert.Equal(t, PublicEntry, g.Current())
}

func TestGuard_LoginRedirectsToProtectedEntry(t *testing.T) {
	store := session.NewStore()
	store.MarkInitialized()
	nav := &recorder{}
	g := New(store, nav, loc(t, "/login"))
	defer g.Close()
	require.Empty(t, nav.replaced)

	store.SetIdentity(&session.Identity{ID: "u1", Email: "a@b.com", Name: "A"})

	assert.Equal(t, []Location{ProtectedEntry}, nav.replaced)
	assert.Equal(t, ProtectedEntry, g.Current())
}

func TestGuard_LogoutRedirectsToPublicEntry(t *testing.T) {
	store := session.NewStore()
	store.SetIdentity(&session.Identity{ID: "u1"})
	store.MarkInitialized()
	nav := &recorder{}
	g := New(store, nav, loc(t, "/tickets"))
	defer g.Close()

	store.SetIdentity(nil)

	assert.Equal(t, []Location{PublicEntry}, nav.replaced)
}

func TestGuard_NavigateTable(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		path          string
		wantPhase     Phase
		wantRedirect  bool
		wantTarget    Location
	}{
		{name: "visitor on login", path: "/login", wantPhase: Unauthenticated},
		{name: "visitor on signup", path: "/signup", wantPhase: Unauthenticated},
		{name: "visitor on home", path: "/", wantPhase: Unauthenticated, wantRedirect: true, wantTarget: PublicEntry},
		{name: "visitor on profile", path: "/profile", wantPhase: Unauthenticated, wantRedirect: true, wantTarget: PublicEntry},
		{name: "member on home", authenticated: true, path: "/", wantPhase: Authenticated},
		{name: "member on submit", authenticated: true, path: "/submit", wantPhase: Authenticated},
		{name: "member on login", authenticated: true, path: "/login", wantPhase: Authenticated, wantRedirect: true, wantTarget: ProtectedEntry},
		{name: "member on signup", authenticated: true, path: "/signup", wantPhase: Authenticated, wantRedirect: true, wantTarget: ProtectedEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewStore()
			if tt.authenticated {
				store.SetIdentity(&session.Identity{ID: "u1"})
			}
			store.MarkInitialized()
			nav := &recorder{}
			start := PublicEntry
			if tt.authenticated {
				start = ProtectedEntry
			}
			g := New(store, nav, start)
			defer g.Close()

			d := g.Navigate(loc(t, tt.path))

			assert.Equal(t, tt.wantPhase, d.Phase)
			assert.Equal(t, tt.wantRedirect, d.Redirect)
			if tt.wantRedirect {
				assert.Equal(t, tt.wantTarget, d.Target)
				assert.Equal(t, []Location{tt.wantTarget}, nav.replaced)
			} else {
				assert.Empty(t, nav.replaced)
				assert.Equal(t, tt.path, g.Current().Path)
			}
		})
	}
}

func TestGuard_NeverRedirectsToCurrentLocation(t *testing.T) {
	store := session.NewStore()
	store.MarkInitialized()
	nav := &recorder{}
	g := New(store, nav, PublicEntry)
	defer g.Close()

	for i := 0; i < 3; i++ {
		store.SetIdentity(nil)
		g.Evaluate()
	}
	assert.Empty(t, nav.replaced)

	store.SetIdentity(&session.Identity{ID: "u1"})
	store.SetIdentity(&session.Identity{ID: "u1", Name: "renamed"})
	g.Evaluate()
	assert.Equal(t, []Location{ProtectedEntry}, nav.replaced)
}

func TestGuard_CloseStopsObserving(t *testing.T) {
	store := session.NewStore()
	store.MarkInitialized()
	nav := &recorder{}
	g := New(store, nav, PublicEntry)
	g.Close()
	g.Close()

	store.SetIdentity(&session.Identity{ID: "u1"})
	assert.Empty(t, nav.replaced)
}

func TestGuard_NavigatorMayNavigateBack(t *testing.T) {
	store := session.NewStore()
	store.MarkInitialized()
	var g *Guard
	var seen []string
	nav := NavigatorFunc(func(target Location) {
		seen = append(seen, target.Path)
		g.Navigate(target)
	})
	g = New(store, nav, PublicEntry)
	defer g.Close()

	store.SetIdentity(&session.Identity{ID: "u1"})

	assert.Equal(t, []string{PathHome}, seen)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		public bool
		ok     bool
	}{
		{in: "/", want: "/", ok: true},
		{in: "explore", want: "/explore", ok: true},
		{in: "/profile/", want: "/profile", ok: true},
		{in: " /login ", want: "/login", public: true, ok: true},
		{in: "/admin", ok: false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got.Path, tt.in)
			assert.Equal(t, tt.public, got.Public, tt.in)
		}
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
}
