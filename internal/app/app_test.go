// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nort/cli/internal/auth"
	"nort/cli/internal/backend"
	"nort/cli/internal/config"
	autherrors "nort/cli/internal/errors"
	"nort/cli/internal/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves just enough of /api for a login round-trip.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: backend.SessionCookieName, Value: "tok"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"u1","email":"a@b.com","name":"A","prefs":{"role":"executive"}}}`))
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if c, err := r.Cookie(backend.SessionCookieName); err == nil && c.Value == "tok" {
			_, _ = w.Write([]byte(`{"data":{"id":"u1","email":"a@b.com","name":"A","prefs":{"role":"executive"}}}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Not logged in"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.Config {
	c := config.Default()
	c.API.BaseURL = baseURL
	c.Keyring.Backend = "memory"
	return c
}

type navRecorder struct{ targets []string }

func (n *navRecorder) Replace(l guard.Location) { n.targets = append(n.targets, l.Path) }

func TestApp_StartupLoginLogout(t *testing.T) {
	srv := fakeAPI(t)
	a, err := New(context.Background(), Options{Config: testConfig(srv.URL)})
	require.NoError(t, err)
	defer a.Close()

	nav := &navRecorder{}
	a.AttachGuard(nav, guard.ProtectedEntry)
	ctx := context.Background()

	res := a.Gateway.Bootstrap(ctx)
	assert.Equal(t, autherrors.NoSession, res.Kind())
	assert.Equal(t, []string{guard.PathLogin}, nav.targets)

	res = a.Gateway.Login(ctx, "a@b.com", "pw")
	require.True(t, res.OK(), "login: %v", res.Err)
	assert.Equal(t, []string{guard.PathLogin, guard.PathHome}, nav.targets)

	tok, err := a.Keychain.LoadSessionToken()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	cached, err := a.Flags.Cached()
	require.NoError(t, err)
	assert.Equal(t, auth.State{LoggedIn: true, Account: "u1", Email: "a@b.com", Name: "A", Role: "executive"}, cached)
}

func TestApp_RestoresSessionFromKeychain(t *testing.T) {
	srv := fakeAPI(t)
	a, err := New(context.Background(), Options{Config: testConfig(srv.URL)})
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Keychain.SaveSessionToken("tok"))

	res := a.Gateway.Bootstrap(context.Background())

	require.True(t, res.OK())
	assert.True(t, a.Store.Authenticated())
	assert.True(t, a.Store.Initialized())
}

func TestApp_CloseStopsGuard(t *testing.T) {
	srv := fakeAPI(t)
	a, err := New(context.Background(), Options{Config: testConfig(srv.URL)})
	require.NoError(t, err)

	nav := &navRecorder{}
	a.AttachGuard(nav, guard.ProtectedEntry)
	a.Close()
	a.Close()

	a.Gateway.Bootstrap(context.Background())
	assert.Empty(t, nav.targets)
	assert.Nil(t, a.Guard())
}

func TestApp_OfflineStartKeepsCachedAccount(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	a, err := New(context.Background(), Options{Config: testConfig(down.URL)})
	require.NoError(t, err)
	defer a.Close()

	cached := auth.State{LoggedIn: true, Account: "u1", Email: "a@b.com", Name: "A"}
	require.NoError(t, a.Keychain.SaveSessionToken("tok"))
	require.NoError(t, auth.Save(a.Keychain, cached))

	res := a.Gateway.Bootstrap(context.Background())
	assert.Equal(t, autherrors.NoSession, res.Kind())
	assert.False(t, a.Store.Authenticated())

	got, err := a.Flags.Cached()
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	tok, err := a.Keychain.LoadSessionToken()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestApp_RejectedSessionClearsCachedAccount(t *testing.T) {
	srv := fakeAPI(t)
	a, err := New(context.Background(), Options{Config: testConfig(srv.URL)})
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Keychain.SaveSessionToken("stale"))
	require.NoError(t, auth.Save(a.Keychain, auth.State{LoggedIn: true, Account: "u1"}))

	res := a.Gateway.Bootstrap(context.Background())
	assert.Equal(t, autherrors.NoSession, res.Kind())

	got, err := a.Flags.Cached()
	require.NoError(t, err)
	assert.Equal(t, auth.State{}, got)
	tok, err := a.Keychain.LoadSessionToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestNew_InvalidConfig(t *testing.T) {
	c := testConfig("")
	_, err := New(context.Background(), Options{Config: c})
	assert.Error(t, err)

	c = testConfig("http://localhost")
	c.Transport = backend.TransportPostgres
	c.Database.URL = "not a dsn"
	_, err = New(context.Background(), Options{Config: c})
	assert.Error(t, err)
}
