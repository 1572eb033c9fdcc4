package session

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/cmmiller26/ai-fun-token-wheel/wheel"
)

// stubModel is a fixed-vector vocabulary model: the same distribution for
// every context, single-character tokens, EOS at the highest id.
type stubModel struct {
	tokens []string
	probs  []float64
}

func (m stubModel) Probabilities(string) ([]float64, error) { return m.probs, nil }

func (m stubModel) Decode(id int) string {
	if id < 0 || id >= len(m.tokens) {
		return ""
	}
	return m.tokens[id]
}

func (m stubModel) TokenizeLength(ctx string) int { return len([]rune(ctx)) }

func (m stubModel) EOSTokenID() int { return len(m.tokens) - 1 }

func (m stubModel) IsSpecial(id int) bool { return id == m.EOSTokenID() }

func (m stubModel) VocabSize() int { return len(m.probs) }

// newStubModel has four real tokens and EOS. With thresholds 0.1/0.05 the
// candidates are ids 0-2 and 0.05 mass is folded into the other bucket.
func newStubModel() stubModel {
	return stubModel{
		tokens: []string{"a", "b", "c", "d", ""},
		probs:  []float64{0.5, 0.3, 0.15, 0.04, 0.01},
	}
}

func newTestManager(opts Options) *Manager {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(7))
	}
	return NewManager(newStubModel(), opts)
}

func TestCreateSession(t *testing.T) {
	mgr := newTestManager(Options{})

	started, err := mgr.CreateSession("hello", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if started.SessionID == "" {
		t.Fatal("empty session id")
	}
	if started.Context != "hello" || started.Step != 0 {
		t.Fatalf("unexpected start state: %+v", started)
	}

	// Three candidates plus the other row.
	if len(started.Tokens) != 4 {
		t.Fatalf("got %d token views, want 4", len(started.Tokens))
	}
	if !started.Tokens[3].IsOther {
		t.Fatalf("trailing view is not the other row: %+v", started.Tokens[3])
	}

	snap, err := mgr.GetSession(started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if snap.State != StateActive || snap.Step != 0 || len(snap.History) != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	mgr := newTestManager(Options{})

	if _, err := mgr.CreateSession("", 0.1, 0.05); !errors.Is(err, wheel.ErrInvalidConfiguration) {
		t.Errorf("empty prompt: got %v, want ErrInvalidConfiguration", err)
	}
	if _, err := mgr.CreateSession("hi", 1.5, 0.05); !errors.Is(err, wheel.ErrInvalidConfiguration) {
		t.Errorf("bad primary: got %v, want ErrInvalidConfiguration", err)
	}
	if _, err := mgr.CreateSession("hi", 0.05, 0.1); !errors.Is(err, wheel.ErrInvalidConfiguration) {
		t.Errorf("primary below secondary: got %v, want ErrInvalidConfiguration", err)
	}
}

func TestAdvanceGrowsSession(t *testing.T) {
	mgr := newTestManager(Options{})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	for step := 1; step <= 3; step++ {
		adv, err := mgr.Advance(started.SessionID, 0)
		if err != nil {
			t.Fatalf("Advance step %d: %v", step, err)
		}
		if adv.SelectedToken != "a" {
			t.Fatalf("step %d: selected %q, want %q", step, adv.SelectedToken, "a")
		}
		if adv.Step != step {
			t.Fatalf("step %d: counter = %d", step, adv.Step)
		}
		wantCtx := "x" + strings.Repeat("a", step)
		if adv.NewContext != wantCtx {
			t.Fatalf("step %d: context %q, want %q", step, adv.NewContext, wantCtx)
		}
		if !adv.ShouldContinue || adv.NextTokens == nil {
			t.Fatalf("step %d: generation should continue with a fresh listing", step)
		}

		snap, err := mgr.GetSession(started.SessionID)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if len(snap.History) != step {
			t.Fatalf("step %d: history length %d", step, len(snap.History))
		}
	}
}

func TestAdvanceOtherSentinelResamples(t *testing.T) {
	mgr := newTestManager(Options{})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	adv, err := mgr.Advance(started.SessionID, wheel.OtherTokenID)
	if err != nil {
		t.Fatalf("Advance(other): %v", err)
	}
	// The excluded set is {d, EOS}; either concrete token may be drawn. A
	// drawn EOS terminates the session, which is fine; what matters is the
	// placeholder never leaks into the context or history.
	if adv.SelectedToken == wheel.OtherToken {
		t.Fatalf("placeholder token reached the context: %+v", adv)
	}
	snap, err := mgr.GetSession(started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(snap.History) != 1 || snap.History[0] == wheel.OtherToken {
		t.Fatalf("unexpected history: %v", snap.History)
	}
}

func TestAdvanceRejectsUnknownToken(t *testing.T) {
	mgr := newTestManager(Options{})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := mgr.Advance(started.SessionID, 99); !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := mgr.Advance("no-such-session", 0); !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAdvanceEOSTerminates(t *testing.T) {
	mgr := newTestManager(Options{})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	eos := newStubModel().EOSTokenID()
	adv, err := mgr.Advance(started.SessionID, eos)
	if err != nil {
		t.Fatalf("Advance(eos): %v", err)
	}
	if adv.ShouldContinue {
		t.Fatal("EOS should stop generation")
	}
	if adv.NextTokens != nil {
		t.Fatal("terminated advance should carry no next listing")
	}

	snap, err := mgr.GetSession(started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if snap.State != StateTerminated {
		t.Fatalf("state = %q, want terminated", snap.State)
	}

	// A terminated session must not silently restart.
	if _, err := mgr.Advance(started.SessionID, 0); !errors.Is(err, wheel.ErrSessionTerminated) {
		t.Fatalf("got %v, want ErrSessionTerminated", err)
	}
	if _, err := mgr.SampleCurrent(started.SessionID); !errors.Is(err, wheel.ErrSessionTerminated) {
		t.Fatalf("got %v, want ErrSessionTerminated", err)
	}
}

func TestAdvanceStopsAtMaxLength(t *testing.T) {
	mgr := newTestManager(Options{MaxLength: 50})
	prompt := strings.Repeat("a", 49)
	started, err := mgr.CreateSession(prompt, 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// One more single-character non-EOS token brings the context to 50
	// tokens: the session stops due to length, not EOS.
	adv, err := mgr.Advance(started.SessionID, 1)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if adv.ShouldContinue {
		t.Fatal("session should stop at max length")
	}
	if adv.SelectedToken != "b" {
		t.Fatalf("selected %q, want %q", adv.SelectedToken, "b")
	}

	snap, err := mgr.GetSession(started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if snap.State != StateTerminated {
		t.Fatalf("state = %q, want terminated", snap.State)
	}
}

func TestSampleCurrentAndSelectAngle(t *testing.T) {
	mgr := newTestManager(Options{})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	res, err := mgr.SampleCurrent(started.SessionID)
	if err != nil {
		t.Fatalf("SampleCurrent: %v", err)
	}
	if res.TargetAngle < res.WedgeStart || res.TargetAngle > res.WedgeEnd {
		t.Errorf("target angle %v outside wedge", res.TargetAngle)
	}

	// Candidates are a [0,180), b [180,288), c [288,342), other [342,360].
	byAngle, err := mgr.SelectAngle(started.SessionID, 200)
	if err != nil {
		t.Fatalf("SelectAngle: %v", err)
	}
	if byAngle.TokenID != 1 || byAngle.Token != "b" {
		t.Fatalf("angle 200 resolved to %+v, want token b", byAngle)
	}

	if _, err := mgr.SelectAngle(started.SessionID, 400); !errors.Is(err, wheel.ErrOutOfRange) {
		t.Fatalf("got %v, want ErrOutOfRange", err)
	}
	if _, err := mgr.SampleCurrent("missing"); !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteSession(t *testing.T) {
	mgr := newTestManager(Options{})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := mgr.DeleteSession(started.SessionID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := mgr.DeleteSession(started.SessionID); !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := mgr.GetSession(started.SessionID); !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestConcurrentAdvancesSerialize(t *testing.T) {
	mgr := newTestManager(Options{MaxLength: 1000})
	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	const workers = 8
	const perWorker = 5
	done := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				if _, err := mgr.Advance(started.SessionID, 0); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for w := 0; w < workers; w++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent advance: %v", err)
		}
	}

	snap, err := mgr.GetSession(started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	want := workers * perWorker
	if snap.Step != want || len(snap.History) != want {
		t.Fatalf("step = %d, history = %d, want %d of each", snap.Step, len(snap.History), want)
	}
	if len(snap.CurrentContext) != 1+want {
		t.Fatalf("context length = %d, want %d", len(snap.CurrentContext), 1+want)
	}
}

func TestManagerSweepUsesInjectedClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mgr := newTestManager(Options{TTL: 10 * time.Minute, Now: clock.Now})

	started, err := mgr.CreateSession("x", 0.1, 0.05)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	clock.Advance(5 * time.Minute)
	if n := mgr.Sweep(); n != 0 {
		t.Fatalf("Sweep evicted %d, want 0", n)
	}

	clock.Advance(6 * time.Minute)
	if n := mgr.Sweep(); n != 1 {
		t.Fatalf("Sweep evicted %d, want 1", n)
	}
	if _, err := mgr.GetSession(started.SessionID); !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after eviction", err)
	}
	if mgr.Sessions() != 0 {
		t.Fatalf("Sessions = %d, want 0", mgr.Sessions())
	}
}
