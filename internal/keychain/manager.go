// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides thread-safe access to the OS credential store for nort.
//
// Two secrets live here: the opaque session token issued by the identity
// service, and a small serialized auth-state blob used to answer "am I logged
// in" without a network round-trip. On macOS the native security command is
// preferred; elsewhere the 99designs keyring library picks a backend (Secret
// Service, KWallet, pass, WinCred, or an encrypted file when configured).
package keychain

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"github.com/pterm/pterm"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "nort"

// Keys used for storing secrets in the OS keychain.
const (
	KeySessionToken = "session_token"
	KeyAuthState    = "auth_state"
)

// Backend names accepted by Options.Backend.
const (
	BackendAuto   = ""
	BackendNative = "native"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// ErrUnsupported is returned when no credential store can be opened.
var ErrUnsupported = errors.New("no supported credential store on this system")

// Options select and configure the credential store.
type Options struct {
	// Backend is one of BackendAuto, BackendNative, BackendFile, BackendMemory,
	// or a raw keyring backend name such as "secret-service" or "pass".
	Backend string
	// FileDir and FilePassword configure the encrypted file backend.
	FileDir      string
	FilePassword string
	Logger       *pterm.Logger
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides centralized, thread-safe operations for the credential store.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// NewManager opens the credential store selected by opts.
func NewManager(opts Options) (*Manager, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))

	if backend == BackendMemory {
		return NewWithKeyring(keyring.NewArrayKeyring(nil)), nil
	}

	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" && (backend == BackendAuto || backend == BackendNative) {
		sb, err := newSecurityBackend(opts.Logger)
		if err == nil {
			return &Manager{backend: sb}, nil
		}
	}

	ring, err := openRing(backend, opts)
	if err != nil {
		return nil, err
	}
	return NewWithKeyring(ring), nil
}

// NewWithKeyring wraps an already-open keyring.
func NewWithKeyring(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

func openRing(backend string, opts Options) (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
		LibSecretCollectionName:  ServiceName,
		KeychainTrustApplication: true,
	}

	switch backend {
	case BackendAuto, BackendNative:
		cfg.AllowedBackends = nativeBackends()
	case BackendFile:
		if opts.FileDir == "" || opts.FilePassword == "" {
			return nil, errors.New("file keyring requires a directory and a password")
		}
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		cfg.FileDir = opts.FileDir
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(opts.FilePassword)
	default:
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(backend)}
	}
	if len(cfg.AllowedBackends) == 0 {
		return nil, ErrUnsupported
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return ring, nil
}

// nativeBackends lists the OS-provided stores in preference order. The
// encrypted file backend is never chosen implicitly.
func nativeBackends() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	default:
		return nil
	}
}

// SaveSessionToken stores the session token.
func (m *Manager) SaveSessionToken(token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	return m.set(KeySessionToken, []byte(token))
}

// LoadSessionToken returns the stored session token, or "" when none is stored.
func (m *Manager) LoadSessionToken() (string, error) {
	data, err := m.get(KeySessionToken)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearSessionToken removes the session token. Missing entries are not an error.
func (m *Manager) ClearSessionToken() error {
	return m.remove(KeySessionToken)
}

// SaveAuthState stores serialized auth state in the keychain.
func (m *Manager) SaveAuthState(data []byte) error {
	return m.set(KeyAuthState, data)
}

// LoadAuthState retrieves serialized auth state. Missing state yields nil.
func (m *Manager) LoadAuthState() ([]byte, error) {
	return m.get(KeyAuthState)
}

// ClearAuthState removes the stored auth state from the keychain.
func (m *Manager) ClearAuthState() error {
	return m.remove(KeyAuthState)
}

// ClearAll removes every nort secret.
func (m *Manager) ClearAll() error {
	return errors.Join(m.remove(KeySessionToken), m.remove(KeyAuthState))
}

func (m *Manager) set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(key, string(data))
	}
	return m.ring.Set(keyring.Item{Key: key, Data: data, Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		v, err := m.backend.Get(key)
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []byte(v), nil
	}

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it.Data, nil
}

func (m *Manager) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(key)
	}
	err := m.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var errNotFound = errors.New("key not found")
