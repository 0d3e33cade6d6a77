// Package dedup tracks recently sent message fingerprints so the router can
// suppress re-delivery of identical content within a sliding window.
package dedup

import (
	"sync"
	"time"
)

type entry struct {
	firstSeen time.Time
	expires   time.Time
}

// Store is a TTL-bounded fingerprint set, safe for concurrent use.
// Expired entries are evicted opportunistically on every lookup and
// record, so the store never needs a background goroutine; the daemon
// additionally calls Sweep on a periodic tick.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time // injectable for tests
}

// New creates a Store with the given suppression window.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Seen reports whether fingerprint is live in the window. Peek only; it
// never marks the fingerprint as seen.
func (s *Store) Seen(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	_, ok := s.entries[fingerprint]
	return ok
}

// Record marks fingerprint as seen until now + TTL. Re-recording a live
// fingerprint is a no-op: the window is anchored to the first delivery so
// suppression spans stay predictable.
func (s *Store) Record(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	if _, ok := s.entries[fingerprint]; ok {
		return
	}
	s.entries[fingerprint] = entry{firstSeen: now, expires: now.Add(s.ttl)}
}

// Sweep removes all entries expired at now and returns how many were evicted.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.entries)
}

// TTL returns the configured suppression window.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) sweepLocked(now time.Time) int {
	evicted := 0
	for fp, e := range s.entries {
		if !e.expires.After(now) {
			delete(s.entries, fp)
			evicted++
		}
	}
	return evicted
}
