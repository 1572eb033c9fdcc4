package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/cmmiller26/ai-fun-token-wheel/model"
	"github.com/cmmiller26/ai-fun-token-wheel/wheel"
)

// Defaults for manager options.
const (
	DefaultMaxLength     = 50
	DefaultTopOtherCount = 5
	DefaultTTL           = 30 * time.Minute
)

// Options configures a Manager. Zero values fall back to the defaults
// above; Rand and Now exist so tests can fix the draw sequence and clock.
type Options struct {
	MaxLength     int
	TopOtherCount int
	TTL           time.Duration
	Rand          *rand.Rand
	Now           func() time.Time
}

// Manager provides the high-level operations over generation sessions:
// create, sample, advance, inspect, delete. It owns the registry, the
// distribution builder, and the sampler, and is the only writer of session
// state.
type Manager struct {
	model     model.Model
	builder   *wheel.Builder
	sampler   *wheel.Sampler
	registry  *Registry
	maxLength int
	topOther  int
	now       func() time.Time
}

// NewManager creates a Manager over the given vocabulary model.
func NewManager(m model.Model, opts Options) *Manager {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.TopOtherCount <= 0 {
		opts.TopOtherCount = DefaultTopOtherCount
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		model:     m,
		builder:   wheel.NewBuilder(m),
		sampler:   wheel.NewSampler(m, opts.Rand),
		registry:  NewRegistry(opts.TTL, opts.Now),
		maxLength: opts.MaxLength,
		topOther:  opts.TopOtherCount,
		now:       opts.Now,
	}
}

// Started is the result of creating a session: its id and the initial
// distribution's display listing.
type Started struct {
	SessionID string            `json:"session_id"`
	Context   string            `json:"context"`
	Tokens    []wheel.TokenView `json:"tokens"`
	Step      int               `json:"step"`
}

// AdvanceResult reports one accepted selection: the resolved token, the
// grown context, and the next distribution's listing when generation
// continues.
type AdvanceResult struct {
	SelectedToken  string            `json:"selected_token"`
	NewContext     string            `json:"new_context"`
	ShouldContinue bool              `json:"should_continue"`
	NextTokens     []wheel.TokenView `json:"next_tokens,omitempty"`
	Step           int               `json:"step"`
}

// CreateSession starts a new generation session from prompt and returns its
// id together with the initial distribution listing.
func (mgr *Manager) CreateSession(prompt string, primary, secondary float64) (Started, error) {
	if prompt == "" {
		return Started{}, fmt.Errorf("%w: prompt must not be empty", wheel.ErrInvalidConfiguration)
	}

	dist, err := mgr.buildDistribution(prompt, primary, secondary)
	if err != nil {
		return Started{}, err
	}
	views, err := wheel.TokenViews(mgr.model, dist, mgr.topOther)
	if err != nil {
		return Started{}, err
	}

	s := &Session{
		id:                 uuid.New().String(),
		state:              StateActive,
		context:            prompt,
		history:            []string{},
		distribution:       dist,
		primaryThreshold:   primary,
		secondaryThreshold: secondary,
		lastActive:         mgr.now(),
	}
	mgr.registry.Put(s)

	slog.Info("session created", "session_id", s.id, "prompt_tokens", mgr.model.TokenizeLength(prompt))
	return Started{
		SessionID: s.id,
		Context:   prompt,
		Tokens:    views,
		Step:      0,
	}, nil
}

// SampleCurrent probabilistically draws one token from a session's current
// distribution. It does not advance the session; the caller confirms the
// choice through Advance.
func (mgr *Manager) SampleCurrent(id string) (wheel.SampleResult, error) {
	s, err := mgr.lookup(id)
	if err != nil {
		return wheel.SampleResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mgr.requireActive(s); err != nil {
		return wheel.SampleResult{}, err
	}
	s.touch(mgr.now())
	return mgr.sampler.Sample(s.distribution)
}

// SelectAngle resolves a landing angle against a session's current wheel.
// Like SampleCurrent it does not advance the session.
func (mgr *Manager) SelectAngle(id string, angle float64) (wheel.SampleResult, error) {
	s, err := mgr.lookup(id)
	if err != nil {
		return wheel.SampleResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mgr.requireActive(s); err != nil {
		return wheel.SampleResult{}, err
	}
	s.touch(mgr.now())
	return mgr.sampler.SelectByAngle(s.distribution, angle)
}

// Advance accepts a token for a session: the token string is appended to
// the context and history, the step counter moves, and either a fresh
// distribution is installed or the session terminates. tokenID may be any
// valid vocabulary id, including one produced by a prior other-resample;
// the OtherTokenID sentinel resamples a concrete token from the remaining
// bucket first.
func (mgr *Manager) Advance(id string, tokenID int) (AdvanceResult, error) {
	s, err := mgr.lookup(id)
	if err != nil {
		return AdvanceResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mgr.requireActive(s); err != nil {
		return AdvanceResult{}, err
	}

	resolvedID, token, err := mgr.resolveToken(s.distribution, tokenID)
	if err != nil {
		return AdvanceResult{}, err
	}

	s.context += token
	s.history = append(s.history, token)
	s.step++
	s.touch(mgr.now())

	stop := resolvedID == mgr.model.EOSTokenID() ||
		mgr.model.TokenizeLength(s.context) >= mgr.maxLength
	if stop {
		s.distribution = nil
		s.state = StateTerminated
		slog.Info("session terminated", "session_id", s.id, "step", s.step)
		return AdvanceResult{
			SelectedToken:  token,
			NewContext:     s.context,
			ShouldContinue: false,
			Step:           s.step,
		}, nil
	}

	dist, err := mgr.buildDistribution(s.context, s.primaryThreshold, s.secondaryThreshold)
	if err != nil {
		return AdvanceResult{}, err
	}
	views, err := wheel.TokenViews(mgr.model, dist, mgr.topOther)
	if err != nil {
		return AdvanceResult{}, err
	}
	s.distribution = dist

	return AdvanceResult{
		SelectedToken:  token,
		NewContext:     s.context,
		ShouldContinue: true,
		NextTokens:     views,
		Step:           s.step,
	}, nil
}

// TokenViews returns the display listing of a session's current
// distribution.
func (mgr *Manager) TokenViews(id string) ([]wheel.TokenView, error) {
	s, err := mgr.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mgr.requireActive(s); err != nil {
		return nil, err
	}
	return wheel.TokenViews(mgr.model, s.distribution, mgr.topOther)
}

// GetSession returns a read-only snapshot of a session.
func (mgr *Manager) GetSession(id string) (Snapshot, error) {
	s, err := mgr.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// DeleteSession removes a session from the registry.
func (mgr *Manager) DeleteSession(id string) error {
	if !mgr.registry.Delete(id) {
		return fmt.Errorf("%w: session %s", wheel.ErrNotFound, id)
	}
	return nil
}

// Sessions returns the number of live sessions.
func (mgr *Manager) Sessions() int {
	return mgr.registry.Len()
}

// Sweep evicts idle sessions once and returns how many were removed.
func (mgr *Manager) Sweep() int {
	return mgr.registry.Sweep()
}

// StartSweeper runs background eviction on a fixed interval until done is
// closed.
func (mgr *Manager) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if n := mgr.Sweep(); n > 0 {
					slog.Info("evicted idle sessions", "count", n)
				}
			}
		}
	}()
}

// lookup resolves a session id against the registry.
func (mgr *Manager) lookup(id string) (*Session, error) {
	s, ok := mgr.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", wheel.ErrNotFound, id)
	}
	return s, nil
}

// requireActive enforces the state machine's advance preconditions. Callers
// hold the session lock.
func (mgr *Manager) requireActive(s *Session) error {
	if s.state == StateTerminated {
		return fmt.Errorf("%w: session %s", wheel.ErrSessionTerminated, s.id)
	}
	if s.distribution == nil {
		return fmt.Errorf("%w: session %s has no pending distribution", wheel.ErrInvalidState, s.id)
	}
	return nil
}

// resolveToken turns a caller-supplied token id into a concrete token. Ids
// already resolved by the caller (a spin result or a wedge click) decode
// directly; the other sentinel runs a resample against the current
// distribution; anything outside the vocabulary is rejected.
func (mgr *Manager) resolveToken(dist *wheel.Distribution, tokenID int) (int, string, error) {
	if tokenID == wheel.OtherTokenID {
		res, err := mgr.sampler.SelectByID(dist, wheel.OtherTokenID)
		if err != nil {
			return 0, "", err
		}
		return res.TokenID, res.Token, nil
	}
	if tokenID < 0 || tokenID >= mgr.model.VocabSize() {
		return 0, "", fmt.Errorf("%w: token id %d outside vocabulary", wheel.ErrNotFound, tokenID)
	}
	return tokenID, mgr.model.Decode(tokenID), nil
}

// buildDistribution fetches the probability vector for context and applies
// the dual-threshold selection.
func (mgr *Manager) buildDistribution(context string, primary, secondary float64) (*wheel.Distribution, error) {
	probs, err := mgr.model.Probabilities(context)
	if err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}
	return mgr.builder.Build(context, probs, primary, secondary)
}
