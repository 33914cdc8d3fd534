// Package session holds the expiring in-memory mapping from session id to
// the finished cognitive analysis.
package session

import (
	"sync"
	"time"
)

// Store is a mutex-guarded expiring map. Each Put schedules a timer that
// removes the entry once its TTL elapses. Entries are lost on process
// restart. There is deliberately no capacity bound beyond the per-entry TTL;
// under sustained load the map grows until entries expire.
// TODO: replace with a bounded LRU once compatibility testing against the
// reference behavior is done.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

type entry struct {
	text  string
	timer *time.Timer
}

// New creates an empty store. The caller owns its lifecycle and must Close it
// on shutdown.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Put stores text under id, replacing any previous entry, and schedules
// removal after ttl.
func (s *Store) Put(id, text string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if old, ok := s.entries[id]; ok {
		old.timer.Stop()
	}

	e := &entry{text: text}
	e.timer = time.AfterFunc(ttl, func() { s.expire(id, e) })
	s.entries[id] = e
}

// Get returns the stored text for id, or ok=false if the id is unknown or
// its entry already expired.
func (s *Store) Get(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.text, true
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops all pending expiry timers and drops every entry. Puts after
// Close are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
}

// expire is safe to call more than once for the same id. A timer whose entry
// was replaced while the callback waited on the mutex must not delete the
// replacement, so the entry identity is checked before deleting.
func (s *Store) expire(id string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[id]; ok && cur == e {
		delete(s.entries, id)
	}
}
