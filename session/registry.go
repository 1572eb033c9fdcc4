package session

import (
	"sync"
	"time"
)

// Registry is the keyed store of live sessions. Its lock covers only the
// map itself and is distinct from every per-session lock, so registry
// operations are never blocked behind a session held across model
// inference. The clock is injected so eviction is testable without timers.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a Registry evicting sessions idle longer than ttl.
// A nil now defaults to time.Now.
func NewRegistry(ttl time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      now,
	}
}

// Put stores a session under its id.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes a session by id and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts every session idle longer than the TTL and returns how many
// were removed. The registry lock is held only to copy the session list and
// then once per removal, never across the whole scan, so user-facing
// requests are not blocked by cleanup.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for _, s := range live {
		if s.idleSince().After(cutoff) {
			continue
		}
		r.mu.Lock()
		delete(r.sessions, s.id)
		r.mu.Unlock()
		evicted++
	}
	return evicted
}
