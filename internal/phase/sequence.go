package phase

import (
	"github.com/cockroachdb/errors"
)

// Kind names a phase, such as INHALE or WORK. The set of kinds is defined by
// whoever builds the sequence.
type Kind string

// Phase is one timed segment of a cycle.
type Phase struct {
	Kind Kind
	// Duration is the phase length in whole seconds.
	Duration int

	// SkipOnFinalCycle drops the phase from the last cycle. When every phase
	// left in the last cycle is skippable the cycle ends early. It cannot be
	// set on the first phase.
	SkipOnFinalCycle bool

	// HoldAfter pauses the engine at the boundary after this phase ends. The
	// next phase is loaded and waits for Start.
	HoldAfter bool
}

// Sequence is a cyclic list of phases repeated Cycles times.
type Sequence struct {
	Phases []Phase
	Cycles int
}

// Validate reports whether the sequence can drive an engine.
func (s Sequence) Validate() error {
	if len(s.Phases) == 0 {
		return errors.Wrap(ErrInvalidSequence, "no phases")
	}
	if s.Cycles < 1 {
		return errors.Wrapf(ErrInvalidSequence, "cycle count %d", s.Cycles)
	}
	for i, p := range s.Phases {
		if p.Kind == "" {
			return errors.Wrapf(ErrInvalidSequence, "phase %d has no kind", i)
		}
		if p.Duration <= 0 {
			return errors.Wrapf(ErrInvalidSequence, "phase %d (%s) has duration %d", i, p.Kind, p.Duration)
		}
	}
	if s.Phases[0].SkipOnFinalCycle {
		return errors.Wrap(ErrInvalidSequence, "first phase cannot be skipped")
	}
	return nil
}

// CycleLength returns the sum of all phase durations in seconds.
func (s Sequence) CycleLength() int {
	total := 0
	for _, p := range s.Phases {
		total += p.Duration
	}
	return total
}

// TotalLength returns the seconds from start to completion, accounting for
// phases skipped on the last cycle. Held boundaries are not counted.
func (s Sequence) TotalLength() int {
	total := s.CycleLength() * s.Cycles
	if s.Cycles < 1 || len(s.Phases) == 0 {
		return total
	}
	for i := len(s.Phases) - 1; i > 0 && s.Phases[i].SkipOnFinalCycle; i-- {
		total -= s.Phases[i].Duration
	}
	return total
}

// Has reports whether any phase has kind k.
func (s Sequence) Has(k Kind) bool {
	for _, p := range s.Phases {
		if p.Kind == k {
			return true
		}
	}
	return false
}

func (s Sequence) clone() Sequence {
	phases := make([]Phase, len(s.Phases))
	copy(phases, s.Phases)
	return Sequence{Phases: phases, Cycles: s.Cycles}
}

// skipRest reports whether every phase from index i on is skipped on the
// final cycle.
func (s Sequence) skipRest(i int) bool {
	if i >= len(s.Phases) {
		return false
	}
	for _, p := range s.Phases[i:] {
		if !p.SkipOnFinalCycle {
			return false
		}
	}
	return true
}
