package session

import (
	"testing"
	"time"
)

// fakeClock is an adjustable clock for deterministic eviction tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(id string, lastActive time.Time) *Session {
	return &Session{
		id:         id,
		state:      StateActive,
		lastActive: lastActive,
	}
}

func TestRegistryPutGetDelete(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRegistry(time.Minute, clock.Now)

	s := newTestSession("s1", clock.Now())
	r.Put(s)

	got, ok := r.Get("s1")
	if !ok || got != s {
		t.Fatalf("Get returned %v, %v", got, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	if !r.Delete("s1") {
		t.Fatal("Delete reported missing session")
	}
	if _, ok := r.Get("s1"); ok {
		t.Fatal("session still present after delete")
	}
	if r.Delete("s1") {
		t.Fatal("second delete should report false")
	}
}

func TestRegistrySweepEvictsOnlyIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRegistry(10*time.Minute, clock.Now)

	stale := newTestSession("stale", clock.Now())
	r.Put(stale)

	clock.Advance(9 * time.Minute)
	fresh := newTestSession("fresh", clock.Now())
	r.Put(fresh)

	// Two more minutes: stale is 11 minutes idle, fresh only 2.
	clock.Advance(2 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("Sweep evicted %d sessions, want 1", n)
	}
	if _, ok := r.Get("stale"); ok {
		t.Error("stale session survived sweep")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Error("fresh session was evicted")
	}
}

func TestRegistrySweepNothingToEvict(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRegistry(10*time.Minute, clock.Now)
	r.Put(newTestSession("s1", clock.Now()))

	if n := r.Sweep(); n != 0 {
		t.Fatalf("Sweep evicted %d sessions, want 0", n)
	}
}
