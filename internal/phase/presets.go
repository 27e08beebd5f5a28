package phase

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Breathing kinds.
const (
	Inhale Kind = "INHALE"
	Hold   Kind = "HOLD"
	Exhale Kind = "EXHALE"
	Rest   Kind = "REST"
)

// Focus kinds.
const (
	Work  Kind = "WORK"
	Break Kind = "BREAK"
)

const (
	// BreathingCycles is the number of breaths in the 4-7-8 exercise.
	BreathingCycles = 3

	// FocusCycles is the number of work sessions in a focus block.
	FocusCycles = 4

	MinWorkMinutes  = 1
	MaxWorkMinutes  = 60
	MinBreakMinutes = 1
	MaxBreakMinutes = 30

	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
)

// CompleteLabel is shown once a session has finished.
const CompleteLabel = "Session Complete"

// Breathing returns the 4-7-8 breathing sequence with a short rest.
func Breathing() Sequence {
	return Sequence{
		Phases: []Phase{
			{Kind: Inhale, Duration: 4},
			{Kind: Hold, Duration: 7},
			{Kind: Exhale, Duration: 8},
			{Kind: Rest, Duration: 2},
		},
		Cycles: BreathingCycles,
	}
}

// ValidateFocusDurations checks work and break lengths in minutes.
func ValidateFocusDurations(workMinutes, breakMinutes int) error {
	if workMinutes < MinWorkMinutes || workMinutes > MaxWorkMinutes {
		return errors.Wrapf(ErrInvalidDuration, "work must be %d-%d minutes, got %d",
			MinWorkMinutes, MaxWorkMinutes, workMinutes)
	}
	if breakMinutes < MinBreakMinutes || breakMinutes > MaxBreakMinutes {
		return errors.Wrapf(ErrInvalidDuration, "break must be %d-%d minutes, got %d",
			MinBreakMinutes, MaxBreakMinutes, breakMinutes)
	}
	return nil
}

// Focus returns a work/break sequence of FocusCycles cycles. The last work
// session ends the block without a break. Unless autoContinue is set the
// engine holds after every break until started again.
func Focus(workMinutes, breakMinutes int, autoContinue bool) (Sequence, error) {
	if err := ValidateFocusDurations(workMinutes, breakMinutes); err != nil {
		return Sequence{}, err
	}
	return Sequence{
		Phases: []Phase{
			{Kind: Work, Duration: workMinutes * 60},
			{Kind: Break, Duration: breakMinutes * 60, SkipOnFinalCycle: true, HoldAfter: !autoContinue},
		},
		Cycles: FocusCycles,
	}, nil
}

var labels = map[Kind]string{
	Inhale: "Breathe In",
	Hold:   "Hold",
	Exhale: "Breathe Out",
	Rest:   "Rest",
	Work:   "Focus Time",
	Break:  "Break Time",
}

var instructions = map[Kind]string{
	Inhale: "Breathe in quietly through your nose",
	Hold:   "Hold your breath",
	Exhale: "Exhale completely through your mouth",
	Rest:   "Relax and let your breath settle",
	Work:   "Stay on one task until the timer ends",
	Break:  "Step away, stretch and rest your eyes",
}

// Label returns the display name of a phase kind.
func Label(k Kind) string {
	if l, ok := labels[k]; ok {
		return l
	}
	s := strings.ToLower(strings.ReplaceAll(string(k), "_", " "))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Instruction returns a short prompt for a phase kind, or an empty string.
func Instruction(k Kind) string {
	return instructions[k]
}
