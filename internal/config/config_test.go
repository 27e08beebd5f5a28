package config

import (
	"strings"
	"testing"
	"time"

	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viperFrom(t *testing.T, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	BindDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(content)))
	return v
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "auto", cfg.Audio.Backend)
	assert.Equal(t, audio.DefaultSampleRate, cfg.Audio.SampleRate)
	assert.Equal(t, 25, cfg.Focus.WorkMinutes)
	assert.Equal(t, 5, cfg.Focus.BreakMinutes)
	assert.False(t, cfg.Focus.AutoContinue)
	assert.Equal(t, 3*time.Second, cfg.Sounds.LoopLength)
	assert.Equal(t, 2*time.Second, cfg.Sounds.PreviewLength)
	assert.Equal(t, soundscape.Rain, cfg.DefaultSound())
}

func TestLoad(t *testing.T) {
	v := viperFrom(t, `
audio:
  backend: mock
  sample_rate: 48000
focus:
  work_minutes: 50
  break_minutes: 10
  auto_continue: true
sounds:
  default: "brown noise"
  preview_length: 1500ms
state:
  path: ~/calm/state.yml
`)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, audio.Options{Backend: audio.BackendMock, SampleRate: 48000}, cfg.AudioOptions())
	assert.Equal(t, soundscape.BrownNoise, cfg.DefaultSound())
	assert.Equal(t, "~/calm/state.yml", cfg.State.Path)

	pc := cfg.PlaybackConfig()
	assert.Equal(t, 1500*time.Millisecond, pc.PreviewLength)
	assert.Equal(t, 3*time.Second, pc.LoopLength)

	seq, err := cfg.FocusSequence()
	require.NoError(t, err)
	assert.Equal(t, 50*60, seq.Phases[0].Duration)
	assert.False(t, seq.Phases[1].HoldAfter)
}

func TestLoad_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Load(viperFrom(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CALMSTEP_FOCUS_WORK_MINUTES", "45")

	v := viperFrom(t, "focus:\n  work_minutes: 30\n")
	v.SetEnvPrefix("calmstep")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Focus.WorkMinutes)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "audio:\n  backend: alsa\n"},
		{"sample rate too low", "audio:\n  sample_rate: 100\n"},
		{"work too long", "focus:\n  work_minutes: 61\n"},
		{"break too long", "focus:\n  break_minutes: 31\n"},
		{"negative work", "focus:\n  work_minutes: -5\n"},
		{"unknown sound", "sounds:\n  default: thunder\n"},
		{"loop too short", "sounds:\n  loop_length: 10ms\n"},
		{"bad duration", "sounds:\n  loop_length: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viperFrom(t, tt.content))
			assert.Error(t, err)
		})
	}
}
