// Package session provides an in-memory keyed store for per-actor
// conversational state. Entries are written last-write-wins and can be
// swept after an idle deadline; everything is lost on restart, which is
// acceptable because a lost session only means the actor starts over.
package session

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	touched time.Time
}

// Store holds one value of type T per int64 key.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[int64]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a session store. A zero ttl disables expiry.
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		entries: make(map[int64]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key and whether one exists. A hit refreshes
// the idle deadline.
func (s *Store[T]) Get(key int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	e.touched = s.now()
	s.entries[key] = e
	return e.value, true
}

// Put stores value under key, replacing any previous value.
func (s *Store[T]) Put(key int64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[T]{value: value, touched: s.now()}
}

// Delete removes the value for key if present.
func (s *Store[T]) Delete(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len reports the number of live sessions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops sessions idle longer than the configured ttl and returns
// how many were dropped. With expiry disabled it does nothing.
func (s *Store[T]) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	dropped := 0
	for key, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}
