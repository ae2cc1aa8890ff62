// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SessionTokenRoundTrip(t *testing.T) {
	m := NewWithKeyring(keyring.NewArrayKeyring(nil))

	tok, err := m.LoadSessionToken()
	require.NoError(t, err)
	assert.Empty(t, tok, "missing token is not an error")

	require.NoError(t, m.SaveSessionToken("tok-1"))
	tok, err = m.LoadSessionToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, m.ClearSessionToken())
	require.NoError(t, m.ClearSessionToken(), "clearing twice is fine")
	tok, err = m.LoadSessionToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestManager_RejectsEmptyToken(t *testing.T) {
	m := NewWithKeyring(keyring.NewArrayKeyring(nil))
	assert.Error(t, m.SaveSessionToken(""))
}

func TestManager_AuthState(t *testing.T) {
	m := NewWithKeyring(keyring.NewArrayKeyring(nil))

	data, err := m.LoadAuthState()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, m.SaveAuthState([]byte(`{"logged_in":true}`)))
	data, err = m.LoadAuthState()
	require.NoError(t, err)
	assert.JSONEq(t, `{"logged_in":true}`, string(data))

	require.NoError(t, m.SaveSessionToken("tok"))
	require.NoError(t, m.ClearAll())
	data, _ = m.LoadAuthState()
	tok, _ := m.LoadSessionToken()
	assert.Nil(t, data)
	assert.Empty(t, tok)
}

func TestNewManager_Memory(t *testing.T) {
	m, err := NewManager(Options{Backend: "memory"})
	require.NoError(t, err)
	require.NoError(t, m.SaveSessionToken("abc"))
	tok, err := m.LoadSessionToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestNewManager_FileBackend(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Options{Backend: BackendFile, FileDir: dir, FilePassword: "pw"})
	require.NoError(t, err)
	require.NoError(t, m.SaveSessionToken("persisted"))

	again, err := NewManager(Options{Backend: BackendFile, FileDir: dir, FilePassword: "pw"})
	require.NoError(t, err)
	tok, err := again.LoadSessionToken()
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}

func TestNewManager_FileBackendNeedsPassword(t *testing.T) {
	_, err := NewManager(Options{Backend: BackendFile, FileDir: t.TempDir()})
	assert.Error(t, err)
}
