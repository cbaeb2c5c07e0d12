package session

import (
	"sync"
	"time"
)

type entry struct {
	state   State
	expires time.Time
}

// Store keeps one pending State per user. Entries expire after the TTL;
// expired entries are invisible to Get and removed by the janitor.
type Store struct {
	mu      sync.Mutex
	entries map[int64]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{entries: make(map[int64]entry), ttl: ttl, now: time.Now}
}

func (s *Store) Set(userID int64, st State) {
	s.mu.Lock()
	s.entries[userID] = entry{state: st, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *Store) Get(userID int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, userID)
		return nil, false
	}
	return e.state, true
}

// Clear drops the user's state and reports whether one was pending.
func (s *Store) Clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[userID]
	delete(s.entries, userID)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// StartJanitor sweeps every interval until done is closed.
func (s *Store) StartJanitor(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-done:
				return
			}
		}
	}()
}

// As returns the user's state as T when the pending state has that type.
func As[T State](s *Store, userID int64) (T, bool) {
	var zero T
	st, ok := s.Get(userID)
	if !ok {
		return zero, false
	}
	v, ok := st.(T)
	return v, ok
}
