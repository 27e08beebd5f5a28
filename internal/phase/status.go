package phase

// Status is the engine's run state.
type Status int

const (
	// StatusIdle is the reset state: first phase, full duration, no cycles.
	StatusIdle Status = iota
	// StatusRunning means ticks advance the countdown.
	StatusRunning
	// StatusPaused means the countdown is frozen mid-phase.
	StatusPaused
	// StatusHeld means the engine stopped at a phase boundary because the
	// previous phase has HoldAfter set.
	StatusHeld
	// StatusTerminal means every cycle has completed.
	StatusTerminal
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusHeld:
		return "held"
	case StatusTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// CanStart reports whether Start moves the engine to running.
func (s Status) CanStart() bool {
	return s == StatusIdle || s == StatusPaused || s == StatusHeld
}

// AtBoundary reports whether the engine sits at the start of a phase.
func (s Status) AtBoundary() bool {
	return s == StatusIdle || s == StatusHeld
}
