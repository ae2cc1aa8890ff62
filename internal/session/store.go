// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the in-memory authentication state of a running client.
//
// A Store is created once per process by the application container and passed
// to its consumers. It records at most one Identity plus an "initialized" flag
// that flips exactly once, after the first "who am I" attempt resolves.
// Observers are notified synchronously after every effective change, which is
// how the route guard and the keychain flag cache stay in step with it.
package session

import "sync"

// State is a point-in-time copy of the store.
type State struct {
	Identity    *Identity
	Initialized bool
}

// Authenticated reports whether an identity is present.
func (s State) Authenticated() bool { return s.Identity != nil }

// Observer receives the state after each change.
type Observer func(State)

// Reader is the read-only view handed to screens.
type Reader interface {
	State() State
	Identity() *Identity
	Initialized() bool
	Authenticated() bool
	Subscribe(Observer) (unsubscribe func())
}

// Store is the single holder of the session state.
type Store struct {
	mu          sync.Mutex
	identity    *Identity
	initialized bool

	nextID    int
	observers []subscription
}

type subscription struct {
	id int
	fn Observer
}

var _ Reader = (*Store)(nil)

// NewStore returns an empty, uninitialized store.
func NewStore() *Store {
	return &Store{}
}

// State returns a snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Identity: s.identity.clone(), Initialized: s.initialized}
}

// Identity returns a copy of the held identity, or nil.
func (s *Store) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.clone()
}

// Initialized reports whether the initial fetch has resolved.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Authenticated reports whether an identity is held.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil
}

// SetIdentity replaces the held identity. A nil identity clears it.
// Observers run even when the value is unchanged.
func (s *Store) SetIdentity(id *Identity) {
	s.mu.Lock()
	s.identity = id.clone()
	st, obs := s.snapshotLocked()
	s.mu.Unlock()
	notify(obs, st)
}

// MarkInitialized flips initialized to true. Only the first call notifies.
func (s *Store) MarkInitialized() {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	st, obs := s.snapshotLocked()
	s.mu.Unlock()
	notify(obs, st)
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Close drops all observers. The held state is left as is.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = nil
}

func (s *Store) snapshotLocked() (State, []Observer) {
	st := State{Identity: s.identity.clone(), Initialized: s.initialized}
	obs := make([]Observer, len(s.observers))
	for i, sub := range s.observers {
		obs[i] = sub.fn
	}
	return st, obs
}

// notify runs outside the lock so observers may read the store.
func notify(obs []Observer, st State) {
	for _, fn := range obs {
		fn(st)
	}
}
