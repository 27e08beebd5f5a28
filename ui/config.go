package ui

import (
	"time"

	"github.com/calmstep/calmstep/internal/soundscape"
)

// Config contains TUI-specific configuration.
type Config struct {
	// Focus timer durations in minutes.
	WorkMinutes  int
	BreakMinutes int
	AutoContinue bool

	// DefaultSound is highlighted when nothing has been selected yet.
	DefaultSound soundscape.ID

	// PreviewLength matches the playback manager's preview expiry so the
	// sound list can refresh when a preview ends.
	PreviewLength time.Duration

	// Start is the first screen: "sounds", "breathe" or "focus".
	Start string

	// For debugging the UI
	TickInterval time.Duration `env:"CALMSTEP_TICK_INTERVAL" envDefault:"1s"`
	AltScreen    bool          `env:"CALMSTEP_ALT_SCREEN"    envDefault:"true"`
}
