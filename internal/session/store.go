// internal/session/store.go
package session

import (
	"sync"
	"time"

	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/pkg/apperr"
)

// Observer receives the session snapshot after every mutation. A nil
// snapshot means the session was cleared. Observers run synchronously once
// the store update has completed, so they never see partial state.
type Observer func(snap *domain.Session)

// Store holds the cached copy of the authoritative user session. All
// mutation paths go through the merge rules below: an authoritative snapshot
// only replaces the cache when its LastActivity is not older than the cached
// one, and local optimistic changes bump LastActivity so an in-flight stale
// fetch cannot clobber them.
type Store struct {
	mu        sync.RWMutex
	cur       *domain.Session
	observers []Observer

	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Subscribe registers an observer for session changes.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Current returns the latest merged snapshot. Never blocks on I/O.
func (s *Store) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return domain.Session{}, false
	}
	return *s.cur, true
}

// ApplyAuthoritative merges an authoritative snapshot into the cache. The
// snapshot wins iff its LastActivity is not older than the cached one;
// otherwise the call is a no-op. Returns whether the snapshot was applied.
func (s *Store) ApplyAuthoritative(snap domain.Session) bool {
	s.mu.Lock()
	if s.cur != nil && !snap.NewerThan(*s.cur) {
		s.mu.Unlock()
		return false
	}
	cp := snap
	s.cur = &cp
	note := cp
	obs := s.observers
	s.mu.Unlock()

	notify(obs, &note)
	return true
}

// ApplyLocalDebit optimistically decrements the balance after the backend
// confirmed an atomic debit-and-create. LastActivity is bumped to now so a
// concurrently in-flight authoritative fetch that predates the debit loses
// the merge.
func (s *Store) ApplyLocalDebit(amount int64) error {
	return s.adjust(-amount)
}

// ApplyLocalCredit is the symmetric increment, used after a confirmed
// deposit.
func (s *Store) ApplyLocalCredit(amount int64) error {
	return s.adjust(amount)
}

func (s *Store) adjust(delta int64) error {
	if delta == 0 {
		return nil
	}

	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return apperr.ErrUnauthenticated
	}
	if s.cur.Balance+delta < 0 {
		s.mu.Unlock()
		return apperr.ErrInsufficientFunds
	}
	s.cur.Balance += delta
	if ts := s.now(); ts.After(s.cur.LastActivity) {
		s.cur.LastActivity = ts
	}
	note := *s.cur
	obs := s.observers
	s.mu.Unlock()

	notify(obs, &note)
	return nil
}

// Clear destroys the cached session on logout or detected expiry. No partial
// carry-over remains for a subsequently logged-in user.
func (s *Store) Clear() {
	s.mu.Lock()
	cleared := s.cur != nil
	s.cur = nil
	obs := s.observers
	s.mu.Unlock()

	if cleared {
		notify(obs, nil)
	}
}

func notify(obs []Observer, snap *domain.Session) {
	for _, fn := range obs {
		fn(snap)
	}
}
