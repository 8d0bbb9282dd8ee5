package session

import (
	"testing"
	"time"
)

func TestPutGetDelete(t *testing.T) {
	s := NewStore[string](0)

	if _, ok := s.Get(1); ok {
		t.Fatal("empty store returned a value")
	}
	s.Put(1, "first")
	s.Put(1, "second")
	got, ok := s.Get(1)
	if !ok || got != "second" {
		t.Fatalf("got %q/%v, want second", got, ok)
	}
	s.Delete(1)
	if _, ok := s.Get(1); ok {
		t.Fatal("deleted key still present")
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	s := NewStore[int](10 * time.Minute)
	current := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return current }

	s.Put(1, 100)
	s.Put(2, 200)

	current = current.Add(5 * time.Minute)
	if _, ok := s.Get(1); !ok {
		t.Fatal("key 1 missing before expiry")
	}

	current = current.Add(7 * time.Minute)
	if dropped := s.Sweep(); dropped != 1 {
		t.Fatalf("dropped = %d, want 1 (only the untouched session)", dropped)
	}
	if _, ok := s.Get(1); !ok {
		t.Fatal("recently touched session was swept")
	}
	if _, ok := s.Get(2); ok {
		t.Fatal("idle session survived the sweep")
	}
}

func TestSweepDisabled(t *testing.T) {
	s := NewStore[int](0)
	current := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return current }

	s.Put(1, 100)
	current = current.Add(24 * time.Hour)
	if dropped := s.Sweep(); dropped != 0 {
		t.Fatalf("dropped = %d with expiry disabled", dropped)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}
