// Package session holds the per-session generation state machine, the
// keyed registry with idle-timeout eviction, and the Manager that exposes
// the core contract consumed by the transport layer.
package session

import (
	"sync"
	"time"

	"github.com/cmmiller26/ai-fun-token-wheel/wheel"
)

// State is a session's lifecycle state.
type State string

const (
	// StateActive means the session accepts further selections.
	StateActive State = "active"

	// StateTerminated means a stop condition was reached; the session can
	// still be queried but never advanced.
	StateTerminated State = "terminated"
)

// Session is one independent generation process: an accumulating context,
// the distribution for the next step, and the selection history. A session
// is a single-writer resource; every mutation happens under mu so
// concurrent calls against the same id serialize.
type Session struct {
	mu sync.Mutex

	id                 string
	state              State
	context            string
	history            []string
	step               int
	distribution       *wheel.Distribution
	primaryThreshold   float64
	secondaryThreshold float64
	lastActive         time.Time
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// Snapshot is a read-only copy of a session's observable state.
type Snapshot struct {
	SessionID      string   `json:"session_id"`
	CurrentContext string   `json:"current_context"`
	Step           int      `json:"step"`
	History        []string `json:"history"`
	State          State    `json:"state"`
}

// snapshot copies the observable state under the session lock.
func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]string, len(s.history))
	copy(history, s.history)
	return Snapshot{
		SessionID:      s.id,
		CurrentContext: s.context,
		Step:           s.step,
		History:        history,
		State:          s.state,
	}
}

// touch records activity for idle-timeout tracking. Callers hold mu.
func (s *Session) touch(now time.Time) {
	s.lastActive = now
}

// idleSince reports the last activity time under the session lock, so the
// sweeper can read it without racing an in-flight advance.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
