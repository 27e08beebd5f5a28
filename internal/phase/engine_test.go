package phase

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEngine(t *testing.T, seq Sequence, opts ...Option) *Engine {
	t.Helper()
	e, err := New(seq, opts...)
	require.NoError(t, err)
	return e
}

// runToEnd ticks e, restarting at held boundaries, until it is terminal.
func runToEnd(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 1_000_000; i++ {
		switch e.Status() {
		case StatusTerminal:
			return
		case StatusHeld, StatusIdle, StatusPaused:
			require.True(t, e.Start())
		}
		e.Tick()
	}
	t.Fatal("engine never became terminal")
}

func TestNew_RejectsInvalidSequences(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
	}{
		{"no phases", Sequence{Cycles: 1}},
		{"zero cycles", Sequence{Phases: []Phase{{Kind: Work, Duration: 1}}}},
		{"negative cycles", Sequence{Phases: []Phase{{Kind: Work, Duration: 1}}, Cycles: -1}},
		{"zero duration", Sequence{Phases: []Phase{{Kind: Work, Duration: 0}}, Cycles: 1}},
		{"negative duration", Sequence{Phases: []Phase{{Kind: Work, Duration: 3}, {Kind: Break, Duration: -2}}, Cycles: 1}},
		{"empty kind", Sequence{Phases: []Phase{{Duration: 3}}, Cycles: 1}},
		{"skippable first phase", Sequence{Phases: []Phase{{Kind: Work, Duration: 3, SkipOnFinalCycle: true}}, Cycles: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.seq)
			assert.Nil(t, e)
			assert.True(t, errors.Is(err, ErrInvalidSequence), "got %v", err)
		})
	}
}

func TestNew_CopiesPhases(t *testing.T) {
	seq := Breathing()
	e := mustEngine(t, seq)
	seq.Phases[0].Duration = 100

	assert.Equal(t, 4, e.Snapshot().Remaining)
}

func TestElapsedEqualsCyclesTimesCycleLength(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
	}{
		{"single phase once", Sequence{Phases: []Phase{{Kind: "A", Duration: 5}}, Cycles: 1}},
		{"single phase repeated", Sequence{Phases: []Phase{{Kind: "A", Duration: 1}}, Cycles: 7}},
		{"breathing", Breathing()},
		{"uneven", Sequence{Phases: []Phase{{Kind: "A", Duration: 3}, {Kind: "B", Duration: 1}, {Kind: "C", Duration: 9}}, Cycles: 2}},
		{"held boundaries", Sequence{Phases: []Phase{{Kind: "A", Duration: 2, HoldAfter: true}, {Kind: "B", Duration: 2}}, Cycles: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, tt.seq)
			runToEnd(t, e)

			snap := e.Snapshot()
			assert.Equal(t, tt.seq.Cycles*tt.seq.CycleLength(), snap.Elapsed)
			assert.Equal(t, tt.seq.TotalLength(), snap.Elapsed)
			assert.Equal(t, tt.seq.Cycles, snap.Completed)
			assert.False(t, snap.Running())
			assert.True(t, snap.Terminal())
		})
	}
}

func TestSinglePhaseCompletesAfterItsDuration(t *testing.T) {
	e := mustEngine(t, Sequence{Phases: []Phase{{Kind: "A", Duration: 3}}, Cycles: 1})
	require.True(t, e.Start())

	e.Tick()
	e.Tick()
	assert.Equal(t, StatusRunning, e.Status())

	tr, changed := e.Tick()
	require.True(t, changed)
	assert.True(t, tr.Terminal)
	assert.True(t, tr.CycleCompleted)
	assert.Equal(t, StatusTerminal, e.Status())
}

func TestCompletedCyclesMonotonic(t *testing.T) {
	e := mustEngine(t, Breathing())
	require.True(t, e.Start())

	last := 0
	for e.Status() == StatusRunning {
		e.Tick()
		snap := e.Snapshot()
		assert.GreaterOrEqual(t, snap.Completed, last)
		assert.LessOrEqual(t, snap.Completed, snap.Cycles)
		last = snap.Completed
	}
	assert.Equal(t, BreathingCycles, last)
}

func TestTerminalIgnoresTicksAndStart(t *testing.T) {
	e := mustEngine(t, Breathing())
	runToEnd(t, e)
	before := e.Snapshot()

	for i := 0; i < 10; i++ {
		_, changed := e.Tick()
		assert.False(t, changed)
	}
	assert.False(t, e.Start())
	assert.False(t, e.Pause())
	assert.Equal(t, before, e.Snapshot())
	assert.Equal(t, 0, before.Remaining)
	assert.Equal(t, Rest, before.Kind)
}

func TestTicksWhileStoppedAreIgnored(t *testing.T) {
	e := mustEngine(t, Breathing())

	_, changed := e.Tick()
	assert.False(t, changed)
	assert.Equal(t, 4, e.Snapshot().Remaining)
	assert.Equal(t, 0, e.Snapshot().Elapsed)

	require.True(t, e.Start())
	e.Tick()
	require.True(t, e.Pause())
	e.Tick()
	e.Tick()
	assert.Equal(t, 3, e.Snapshot().Remaining)
}

func TestBreathingScenario(t *testing.T) {
	e := mustEngine(t, Breathing())
	require.True(t, e.Start())

	for i := 0; i < 19; i++ {
		e.Tick()
	}
	snap := e.Snapshot()
	assert.Equal(t, Rest, snap.Kind)
	assert.Equal(t, 2, snap.Remaining)
	assert.Equal(t, 0, snap.Completed)
	assert.False(t, e.CanAdvanceStage())

	e.Tick()
	tr, changed := e.Tick()
	require.True(t, changed)
	assert.True(t, tr.CycleCompleted)
	assert.Equal(t, Rest, tr.From)
	assert.Equal(t, Inhale, tr.To)

	snap = e.Snapshot()
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, Inhale, snap.Kind)
	assert.Equal(t, 4, snap.Remaining)
	assert.True(t, snap.Running())
	assert.True(t, e.CanAdvanceStage())

	for i := 0; i < 42; i++ {
		e.Tick()
	}
	assert.True(t, e.Snapshot().Terminal())
	assert.Equal(t, 63, e.Snapshot().Elapsed)
}

func TestFocusScenario(t *testing.T) {
	seq, err := Focus(25, 5, false)
	require.NoError(t, err)

	var transitions []Transition
	e := mustEngine(t, seq, WithObserver(func(tr Transition) {
		transitions = append(transitions, tr)
	}))

	runToEnd(t, e)

	works, breaks, holds := 1, 0, 0
	for _, tr := range transitions {
		switch {
		case tr.Terminal:
		case tr.To == Work:
			works++
		case tr.To == Break:
			breaks++
		}
		if tr.Held {
			holds++
		}
	}

	assert.Equal(t, 4, works)
	assert.Equal(t, 3, breaks, "no break after the last work session")
	assert.Equal(t, 3, holds)

	last := transitions[len(transitions)-1]
	assert.True(t, last.Terminal)
	assert.True(t, last.Skipped)
	assert.Equal(t, Work, last.From)

	snap := e.Snapshot()
	assert.Equal(t, 4, snap.Completed)
	assert.Equal(t, (4*25+3*5)*60, snap.Elapsed)
	assert.Equal(t, seq.TotalLength(), snap.Elapsed)
}

func TestFocusHoldsAfterBreak(t *testing.T) {
	seq, err := Focus(1, 1, false)
	require.NoError(t, err)
	e := mustEngine(t, seq)
	require.True(t, e.Start())

	for i := 0; i < 60; i++ {
		e.Tick()
	}
	assert.Equal(t, Break, e.Snapshot().Kind)
	assert.Equal(t, StatusRunning, e.Status())

	for i := 0; i < 60; i++ {
		e.Tick()
	}
	snap := e.Snapshot()
	assert.Equal(t, StatusHeld, snap.Status)
	assert.Equal(t, Work, snap.Kind)
	assert.Equal(t, 60, snap.Remaining)
	assert.Equal(t, 1, snap.Completed)

	// Held engines ignore ticks until started.
	e.Tick()
	assert.Equal(t, 60, e.Snapshot().Remaining)

	assert.False(t, e.Pause())
	require.True(t, e.Start())
	e.Tick()
	assert.Equal(t, 59, e.Snapshot().Remaining)
}

func TestFocusAutoContinue(t *testing.T) {
	seq, err := Focus(1, 1, true)
	require.NoError(t, err)
	e := mustEngine(t, seq)
	require.True(t, e.Start())

	for i := 0; i < 120; i++ {
		e.Tick()
	}
	assert.Equal(t, StatusRunning, e.Status())
	assert.Equal(t, Work, e.Snapshot().Kind)
}

func TestPauseResumeKeepsRemaining(t *testing.T) {
	e := mustEngine(t, Breathing())
	require.True(t, e.Start())
	for i := 0; i < 6; i++ {
		e.Tick()
	}

	before := e.Snapshot()
	require.True(t, e.Pause())
	assert.False(t, e.Pause())
	assert.Equal(t, StatusPaused, e.Status())

	require.True(t, e.Start())
	after := e.Snapshot()
	assert.Equal(t, before.Remaining, after.Remaining)
	assert.Equal(t, before.Kind, after.Kind)
	assert.Equal(t, before.Elapsed, after.Elapsed)
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	e := mustEngine(t, Breathing())
	require.True(t, e.Start())
	e.Tick()
	assert.False(t, e.Start())
	assert.Equal(t, 3, e.Snapshot().Remaining)
}

func TestResetFromAnyState(t *testing.T) {
	held, err := Focus(1, 1, false)
	require.NoError(t, err)

	tests := []struct {
		name  string
		seq   Sequence
		setup func(e *Engine)
	}{
		{"idle", Breathing(), func(*Engine) {}},
		{"running", Breathing(), func(e *Engine) {
			e.Start()
			for i := 0; i < 30; i++ {
				e.Tick()
			}
		}},
		{"paused", Breathing(), func(e *Engine) {
			e.Start()
			e.Tick()
			e.Pause()
		}},
		{"held", held, func(e *Engine) {
			e.Start()
			for i := 0; i < 120; i++ {
				e.Tick()
			}
		}},
		{"terminal", Breathing(), func(e *Engine) { runToEnd(t, e) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, tt.seq)
			tt.setup(e)
			e.Reset()

			snap := e.Snapshot()
			assert.Equal(t, 0, snap.Index)
			assert.Equal(t, tt.seq.Phases[0].Kind, snap.Kind)
			assert.Equal(t, tt.seq.Phases[0].Duration, snap.Remaining)
			assert.Equal(t, 0, snap.Completed)
			assert.Equal(t, 0, snap.Elapsed)
			assert.Equal(t, StatusIdle, snap.Status)
			assert.False(t, e.CanAdvanceStage())
			assert.True(t, e.Start())
		})
	}
}

func TestSetDuration(t *testing.T) {
	seq, err := Focus(25, 5, false)
	require.NoError(t, err)

	t.Run("idle reflects immediately", func(t *testing.T) {
		e := mustEngine(t, seq)
		require.NoError(t, e.SetDuration(Work, 10*60))
		assert.Equal(t, 600, e.Snapshot().Remaining)
		assert.Equal(t, 600, e.Snapshot().Duration)

		require.NoError(t, e.SetDuration(Break, 2*60))
		assert.Equal(t, 600, e.Snapshot().Remaining)
		d, ok := e.Duration(Break)
		assert.True(t, ok)
		assert.Equal(t, 120, d)
	})

	t.Run("rejected while running", func(t *testing.T) {
		e := mustEngine(t, seq)
		require.True(t, e.Start())
		err := e.SetDuration(Work, 60)
		assert.True(t, errors.Is(err, ErrRunning))
		d, _ := e.Duration(Work)
		assert.Equal(t, 25*60, d)
	})

	t.Run("invalid values", func(t *testing.T) {
		e := mustEngine(t, seq)
		assert.True(t, errors.Is(e.SetDuration(Work, 0), ErrInvalidDuration))
		assert.True(t, errors.Is(e.SetDuration(Work, -5), ErrInvalidDuration))
		assert.True(t, errors.Is(e.SetDuration(Inhale, 5), ErrUnknownKind))
	})

	t.Run("paused mid-phase caps remaining", func(t *testing.T) {
		e := mustEngine(t, seq)
		require.True(t, e.Start())
		e.Tick()
		require.True(t, e.Pause())

		require.NoError(t, e.SetDuration(Work, 30*60))
		snap := e.Snapshot()
		assert.Equal(t, 25*60-1, snap.Remaining, "longer phases keep the remaining time")
		assert.Equal(t, 30*60, snap.Duration)

		require.NoError(t, e.SetDuration(Work, 60))
		snap = e.Snapshot()
		assert.Equal(t, 60, snap.Remaining, "shorter phases cap the remaining time")
		assert.Equal(t, StatusPaused, snap.Status)
		assert.Zero(t, snap.Progress())

		e.Reset()
		assert.Equal(t, 60, e.Snapshot().Remaining)
	})

	t.Run("paused in another phase keeps remaining", func(t *testing.T) {
		short, err := Focus(1, 5, false)
		require.NoError(t, err)
		e := mustEngine(t, short)
		require.True(t, e.Start())
		for i := 0; i < 61; i++ {
			e.Tick()
		}
		require.True(t, e.Pause())
		require.Equal(t, Break, e.Snapshot().Kind)

		require.NoError(t, e.SetDuration(Work, 1))
		assert.Equal(t, 5*60-1, e.Snapshot().Remaining)
	})

	t.Run("held on matching phase", func(t *testing.T) {
		short, err := Focus(1, 1, false)
		require.NoError(t, err)
		e := mustEngine(t, short)
		require.True(t, e.Start())
		for i := 0; i < 120; i++ {
			e.Tick()
		}
		require.Equal(t, StatusHeld, e.Status())

		require.NoError(t, e.SetDuration(Work, 300))
		assert.Equal(t, 300, e.Snapshot().Remaining)
	})

	t.Run("does not touch caller's sequence", func(t *testing.T) {
		e := mustEngine(t, seq)
		before := e.Sequence()
		require.NoError(t, e.SetDuration(Work, 60))
		assert.Equal(t, 25*60, before.Phases[0].Duration)
		assert.Equal(t, 25*60, seq.Phases[0].Duration)
	})
}

func TestObserverSeesCommittedState(t *testing.T) {
	var e *Engine
	var seen []Snapshot
	e = mustEngine(t, Sequence{
		Phases: []Phase{{Kind: "A", Duration: 1}, {Kind: "B", Duration: 2}},
		Cycles: 2,
	}, WithObserver(func(Transition) {
		seen = append(seen, e.Snapshot())
	}))

	require.True(t, e.Start())
	tr, changed := e.Tick()
	require.True(t, changed)
	assert.Equal(t, Kind("A"), tr.From)
	assert.Equal(t, Kind("B"), tr.To)

	require.Len(t, seen, 1)
	assert.Equal(t, Kind("B"), seen[0].Kind)
	assert.Equal(t, 2, seen[0].Remaining)

	// No transition, no callback.
	e.Tick()
	assert.Len(t, seen, 1)
}

func TestSnapshotProgress(t *testing.T) {
	e := mustEngine(t, Breathing())
	assert.Zero(t, e.Snapshot().Progress())

	require.True(t, e.Start())
	e.Tick()
	assert.InDelta(t, 0.25, e.Snapshot().Progress(), 1e-9)

	runToEnd(t, e)
	assert.Equal(t, 1.0, e.Snapshot().Progress())

	tests := []struct {
		name string
		snap Snapshot
		want float64
	}{
		{"remaining above duration", Snapshot{Duration: 60, Remaining: 1400, Status: StatusPaused}, 0},
		{"negative remaining", Snapshot{Duration: 60, Remaining: -5, Status: StatusRunning}, 1},
		{"zero duration", Snapshot{Status: StatusIdle}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.Progress())
		})
	}
}
