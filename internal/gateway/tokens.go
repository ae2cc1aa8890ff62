package gateway

import "sync"

// MemoryTokens keeps the session token in process memory.
type MemoryTokens struct {
	mu    sync.Mutex
	token string
}

// LoadSessionToken returns the token, or "" when none is held.
func (m *MemoryTokens) LoadSessionToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// SaveSessionToken replaces the held token.
func (m *MemoryTokens) SaveSessionToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// ClearSessionToken forgets the held token.
func (m *MemoryTokens) ClearSessionToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
