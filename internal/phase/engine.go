// Package phase implements a one-second countdown that walks a cyclic
// sequence of phases a fixed number of times. The engine is a plain state
// machine: something else calls Tick once per second, which makes it easy to
// drive from a wall-clock Runner, a bubbletea tick command or a test.
package phase

import (
	"math"
	"sync"

	"github.com/cockroachdb/errors"
)

// Transition describes a phase change caused by a tick.
type Transition struct {
	From      Kind
	FromIndex int
	To        Kind
	ToIndex   int

	// Completed is the completed cycle count after the transition.
	Completed int
	// CycleCompleted is set when the transition finished a cycle.
	CycleCompleted bool
	// Skipped is set when the rest of the final cycle was skipped.
	Skipped bool
	// Held is set when the engine stopped at the new boundary.
	Held bool
	// Terminal is set when the transition completed the last cycle. To is
	// empty in that case.
	Terminal bool
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Kind      Kind
	Index     int
	Remaining int
	// Duration is the full length of the current phase.
	Duration  int
	Completed int
	Cycles    int
	Status    Status
	// Elapsed counts ticks that decremented the countdown.
	Elapsed int
}

// Running reports whether ticks advance the countdown.
func (s Snapshot) Running() bool { return s.Status == StatusRunning }

// Terminal reports whether every cycle has completed.
func (s Snapshot) Terminal() bool { return s.Status == StatusTerminal }

// Progress returns how far through the current phase the countdown is, in
// [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Status == StatusTerminal {
		return 1
	}
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Duration-s.Remaining) / float64(s.Duration)
	return math.Max(0, math.Min(1, p))
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers fn to be called for every transition. Observers run
// synchronously on the ticking goroutine after the state is committed and
// without the engine lock held, so they may call back into the engine.
func WithObserver(fn func(Transition)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// Engine is the countdown state machine. It is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	seq       Sequence
	status    Status
	index     int
	remaining int
	completed int
	elapsed   int
	observers []func(Transition)
}

// New validates seq and returns an idle engine at its first phase.
func New(seq Sequence, opts ...Option) (*Engine, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{seq: seq.clone()}
	for _, opt := range opts {
		opt(e)
	}
	e.resetLocked()
	return e, nil
}

// Start runs the countdown from idle, paused or held. It returns false, and
// does nothing, when the engine is already running or terminal.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.status.CanStart() {
		return false
	}
	e.status = StatusRunning
	return true
}

// Pause freezes the countdown. It returns false when the engine was not
// running.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusRunning {
		return false
	}
	e.status = StatusPaused
	return true
}

// Reset returns the engine to its first phase with zero cycles, stopped.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.status = StatusIdle
	e.index = 0
	e.remaining = e.seq.Phases[0].Duration
	e.completed = 0
	e.elapsed = 0
}

// Tick advances the countdown by one second. It returns the transition and
// true when the second ended a phase. Ticks while not running are ignored.
func (e *Engine) Tick() (Transition, bool) {
	e.mu.Lock()
	t, changed := e.tickLocked()
	observers := e.observers
	e.mu.Unlock()

	if changed {
		for _, fn := range observers {
			fn(t)
		}
	}
	return t, changed
}

func (e *Engine) tickLocked() (Transition, bool) {
	if e.status != StatusRunning {
		return Transition{}, false
	}

	e.remaining--
	e.elapsed++
	if e.remaining > 0 {
		return Transition{}, false
	}
	return e.advanceLocked(), true
}

// advanceLocked moves past the phase that just ran out.
func (e *Engine) advanceLocked() Transition {
	phases := e.seq.Phases
	from := e.index
	t := Transition{From: phases[from].Kind, FromIndex: from}

	next := from + 1
	if next == len(phases) {
		next = 0
		t.CycleCompleted = true
	} else if e.completed == e.seq.Cycles-1 && e.seq.skipRest(next) {
		next = 0
		t.CycleCompleted = true
		t.Skipped = true
	}

	if t.CycleCompleted {
		e.completed++
	}
	t.Completed = e.completed

	if e.completed >= e.seq.Cycles {
		e.status = StatusTerminal
		e.remaining = 0
		t.Terminal = true
		t.ToIndex = from
		return t
	}

	e.index = next
	e.remaining = phases[next].Duration
	t.To = phases[next].Kind
	t.ToIndex = next

	if phases[from].HoldAfter {
		e.status = StatusHeld
		t.Held = true
	}
	return t
}

// CanAdvanceStage reports whether at least one cycle has completed.
func (e *Engine) CanAdvanceStage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed >= 1
}

// SetDuration changes the length of every phase of kind k. It is rejected
// while running. When the engine sits at the start of a phase of that kind
// the countdown picks up the new length immediately. When paused inside such
// a phase the remaining time is capped at the new length. Otherwise it
// applies the next time such a phase begins.
func (e *Engine) SetDuration(k Kind, seconds int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusRunning {
		return ErrRunning
	}
	if seconds <= 0 {
		return errors.Wrapf(ErrInvalidDuration, "%d seconds", seconds)
	}
	if !e.seq.Has(k) {
		return errors.Wrapf(ErrUnknownKind, "%q", k)
	}

	seq := e.seq.clone()
	for i := range seq.Phases {
		if seq.Phases[i].Kind == k {
			seq.Phases[i].Duration = seconds
		}
	}
	e.seq = seq

	if seq.Phases[e.index].Kind == k {
		switch {
		case e.status.AtBoundary():
			e.remaining = seconds
		case e.remaining > seconds:
			// Paused mid-phase: never leave more time than the phase now has.
			e.remaining = seconds
		}
	}
	return nil
}

// Duration returns the configured length of the first phase of kind k.
func (e *Engine) Duration(k Kind) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.seq.Phases {
		if p.Kind == k {
			return p.Duration, true
		}
	}
	return 0, false
}

// Sequence returns a copy of the configured sequence.
func (e *Engine) Sequence() Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.clone()
}

// Status returns the current run state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot returns a consistent copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.seq.Phases[e.index]
	return Snapshot{
		Kind:      p.Kind,
		Index:     e.index,
		Remaining: e.remaining,
		Duration:  p.Duration,
		Completed: e.completed,
		Cycles:    e.seq.Cycles,
		Status:    e.status,
		Elapsed:   e.elapsed,
	}
}
