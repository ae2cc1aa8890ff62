// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package accountdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"nort/cli/internal/backend"
	autherrors "nort/cli/internal/errors"
	"nort/cli/internal/gateway"
	"nort/cli/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newDirectory(t *testing.T) (*Directory, *fakeDB) {
	t.Helper()
	client, _ := setupTestRedis(t)
	db := newFakeDB()
	return New(db, NewRedisSessions(client), time.Hour, nil), db
}

func signup(t *testing.T, d *Directory, email, password string) backend.Account {
	t.Helper()
	acct, err := d.CreateAccount(context.Background(), backend.NewAccount{
		Email: email, Password: password, Name: "Test User", Role: "producer",
	})
	require.NoError(t, err)
	return acct
}

func TestDirectory_AccountLifecycle(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	acct := signup(t, d, " A@B.com ", "correct horse")
	assert.Equal(t, "a@b.com", acct.Email)
	assert.Len(t, acct.ID, 36)
	assert.Equal(t, "producer", acct.Prefs["role"])

	s, err := d.CreateSession(ctx, "a@b.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, acct.ID, s.UserID)

	got, err := d.GetAccount(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.Equal(t, "Test User", got.Name)

	updated, err := d.UpdatePrefs(ctx, s.Token, map[string]any{"role": "manager", "theme": "dark"})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Prefs["role"])

	require.NoError(t, d.DeleteSession(ctx, s.Token))
	_, err = d.GetAccount(ctx, s.Token)
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestDirectory_Rejections(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	signup(t, d, "a@b.com", "correct horse")

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"duplicate email", func() error {
			_, err := d.CreateAccount(ctx, backend.NewAccount{Email: "A@b.com", Password: "another one", Name: "Dup"})
			return err
		}, backend.ErrConflict},
		{"weak password", func() error {
			_, err := d.CreateAccount(ctx, backend.NewAccount{Email: "c@d.com", Password: "short", Name: "C"})
			return err
		}, backend.ErrInvalid},
		{"malformed email", func() error {
			_, err := d.CreateAccount(ctx, backend.NewAccount{Email: "not-an-email", Password: "long enough", Name: "C"})
			return err
		}, backend.ErrInvalid},
		{"wrong password", func() error {
			_, err := d.CreateSession(ctx, "a@b.com", "wrong horse")
			return err
		}, backend.ErrUnauthorized},
		{"unknown email", func() error {
			_, err := d.CreateSession(ctx, "nobody@b.com", "correct horse")
			return err
		}, backend.ErrUnauthorized},
		{"unknown token", func() error {
			_, err := d.GetAccount(ctx, "nope")
			return err
		}, backend.ErrUnauthorized},
		{"empty token", func() error {
			_, err := d.GetAccount(ctx, "")
			return err
		}, backend.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}
}

func TestDirectory_ExpiredSession(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	signup(t, d, "a@b.com", "correct horse")
	s, err := d.CreateSession(ctx, "a@b.com", "correct horse")
	require.NoError(t, err)

	d.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = d.GetAccount(ctx, s.Token)
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestDirectory_DatabaseFailureIsNotARejection(t *testing.T) {
	d, db := newDirectory(t)
	db.err = errors.New("connection reset by peer")

	_, err := d.CreateSession(context.Background(), "a@b.com", "correct horse")
	require.Error(t, err)
	assert.False(t, backend.IsRejection(err))
}

func TestDirectory_DrivesGateway(t *testing.T) {
	d, _ := newDirectory(t)
	store := session.NewStore()
	g := gateway.New(d, store, nil)
	ctx := context.Background()

	res := g.Signup(ctx, "new@nort.test", "s3cret-pass", "New Artist", "")
	require.True(t, res.OK(), "signup: %v", res.Err)
	assert.Equal(t, session.RoleArtist, store.Identity().Role())

	res = g.Signup(ctx, "new@nort.test", "s3cret-pass", "Again", "artist")
	assert.Equal(t, autherrors.AccountRejected, res.Kind())
	assert.True(t, store.Authenticated(), "rejected signup leaves the store alone")

	res = g.Logout(ctx)
	assert.NoError(t, res.Err)
	assert.False(t, store.Authenticated())

	res = g.Login(ctx, "new@nort.test", "wrong")
	assert.Equal(t, autherrors.AuthenticationFailed, res.Kind())
}

func TestEnsureSchema(t *testing.T) {
	db := newFakeDB()
	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.Len(t, db.executed, len(schema))

	db.err = errors.New("permission denied")
	assert.Error(t, EnsureSchema(context.Background(), db))
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.ErrorIs(t, err, backend.ErrInvalid)

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "long enough"))
	assert.False(t, VerifyPassword(hash, "long enougH"))
}
