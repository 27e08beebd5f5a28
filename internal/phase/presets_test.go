package phase

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreathingPreset(t *testing.T) {
	seq := Breathing()
	require.NoError(t, seq.Validate())
	assert.Equal(t, 3, seq.Cycles)
	assert.Equal(t, 21, seq.CycleLength())
	assert.Equal(t, 63, seq.TotalLength())

	kinds := make([]Kind, len(seq.Phases))
	for i, p := range seq.Phases {
		kinds[i] = p.Kind
	}
	assert.Equal(t, []Kind{Inhale, Hold, Exhale, Rest}, kinds)
}

func TestValidateFocusDurations(t *testing.T) {
	tests := []struct {
		work, brk int
		wantErr   bool
	}{
		{25, 5, false},
		{1, 1, false},
		{60, 30, false},
		{0, 5, true},
		{61, 5, true},
		{25, 0, true},
		{25, 31, true},
	}

	for _, tt := range tests {
		err := ValidateFocusDurations(tt.work, tt.brk)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidDuration), "%d/%d", tt.work, tt.brk)
		} else {
			assert.NoError(t, err, "%d/%d", tt.work, tt.brk)
		}
	}
}

func TestFocusPreset(t *testing.T) {
	seq, err := Focus(25, 5, false)
	require.NoError(t, err)
	require.NoError(t, seq.Validate())

	assert.Equal(t, FocusCycles, seq.Cycles)
	assert.Equal(t, 25*60, seq.Phases[0].Duration)
	assert.Equal(t, 5*60, seq.Phases[1].Duration)
	assert.True(t, seq.Phases[1].SkipOnFinalCycle)
	assert.True(t, seq.Phases[1].HoldAfter)
	assert.Equal(t, (4*25+3*5)*60, seq.TotalLength())

	auto, err := Focus(25, 5, true)
	require.NoError(t, err)
	assert.False(t, auto.Phases[1].HoldAfter)

	_, err = Focus(90, 5, false)
	assert.True(t, errors.Is(err, ErrInvalidDuration))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Breathe In", Label(Inhale))
	assert.Equal(t, "Breathe Out", Label(Exhale))
	assert.Equal(t, "Focus Time", Label(Work))
	assert.Equal(t, "Break Time", Label(Break))
	assert.Equal(t, "Long break", Label("LONG_BREAK"))
	assert.Empty(t, Label(""))

	assert.NotEmpty(t, Instruction(Hold))
	assert.Empty(t, Instruction("LONG_BREAK"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "held", StatusHeld.String())
	assert.Equal(t, "unknown", Status(42).String())
	assert.True(t, StatusHeld.CanStart())
	assert.False(t, StatusTerminal.CanStart())
	assert.True(t, StatusIdle.AtBoundary())
	assert.False(t, StatusPaused.AtBoundary())
}
