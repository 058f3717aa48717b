package models

import "sync"

// Session is the mutex-guarded handle to the open store, shared between
// the UI update path and background persistence. User-initiated edits
// block on the lock; alert-trigger persistence uses TryWith and skips
// under contention.
type Session struct {
	mu    sync.Mutex
	store Store
}

func NewSession(st Store) *Session {
	return &Session{store: st}
}

// With runs fn while holding the store lock.
func (s *Session) With(fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

// TryWith runs fn only if the lock is free, reporting whether it ran.
func (s *Session) TryWith(fn func(Store) error) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	fn(s.store)
	return true
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}
