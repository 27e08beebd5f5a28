// Package config loads calmstep's settings from viper into a typed,
// validated Config.
package config

import (
	"time"

	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/phase"
	"github.com/calmstep/calmstep/internal/playback"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Debug  bool         `mapstructure:"debug"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Focus  FocusConfig  `mapstructure:"focus"`
	Sounds SoundsConfig `mapstructure:"sounds"`
	State  StateConfig  `mapstructure:"state"`
}

// AudioConfig selects and tunes the output device.
type AudioConfig struct {
	Backend       string        `mapstructure:"backend" default:"auto" validate:"oneof=auto oto mock none"`
	SampleRate    int           `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	ResumeTimeout time.Duration `mapstructure:"resume_timeout" default:"2s" validate:"gt=0"`
}

// FocusConfig holds the focus timer's durations in minutes.
type FocusConfig struct {
	WorkMinutes  int  `mapstructure:"work_minutes" default:"25" validate:"gte=1,lte=60"`
	BreakMinutes int  `mapstructure:"break_minutes" default:"5" validate:"gte=1,lte=30"`
	AutoContinue bool `mapstructure:"auto_continue"`
}

// SoundsConfig tunes soundscape playback.
type SoundsConfig struct {
	// Default is the soundscape used when nothing has been selected yet.
	Default       string        `mapstructure:"default" default:"rain" validate:"required"`
	LoopLength    time.Duration `mapstructure:"loop_length" default:"3s" validate:"gte=1s,lte=1m"`
	PreviewLength time.Duration `mapstructure:"preview_length" default:"2s" validate:"gte=100ms,lte=30s"`
}

// StateConfig locates the settings store. An empty path means the default
// data directory.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var cfg Config
	_ = defaults.Set(&cfg) // only fails on malformed tags
	return cfg
}

// BindDefaults registers every key with v so environment variables and
// flags can override keys that are absent from the config file.
func BindDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.resume_timeout", d.Audio.ResumeTimeout)
	v.SetDefault("focus.work_minutes", d.Focus.WorkMinutes)
	v.SetDefault("focus.break_minutes", d.Focus.BreakMinutes)
	v.SetDefault("focus.auto_continue", d.Focus.AutoContinue)
	v.SetDefault("sounds.default", d.Sounds.Default)
	v.SetDefault("sounds.loop_length", d.Sounds.LoopLength)
	v.SetDefault("sounds.preview_length", d.Sounds.PreviewLength)
	v.SetDefault("state.path", d.State.Path)
}

// Load decodes v into a Config, fills zero fields with defaults and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Validate checks struct tags and the soundscape name.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if _, err := soundscape.Parse(c.Sounds.Default); err != nil {
		return errors.Wrapf(err, "sounds.default %q", c.Sounds.Default)
	}
	return nil
}

// AudioOptions returns the output device options.
func (c *Config) AudioOptions() audio.Options {
	backend, err := audio.ParseBackend(c.Audio.Backend)
	if err != nil {
		// Validate restricts the value to known backends.
		backend = audio.BackendAuto
	}
	return audio.Options{Backend: backend, SampleRate: c.Audio.SampleRate}
}

// PlaybackConfig returns the playback manager settings.
func (c *Config) PlaybackConfig() playback.Config {
	pc := playback.DefaultConfig()
	pc.LoopLength = c.Sounds.LoopLength
	pc.PreviewLength = c.Sounds.PreviewLength
	pc.ResumeTimeout = c.Audio.ResumeTimeout
	return pc
}

// DefaultSound returns the configured fallback soundscape.
func (c *Config) DefaultSound() soundscape.ID {
	id, err := soundscape.Parse(c.Sounds.Default)
	if err != nil {
		return soundscape.Rain
	}
	return id
}

// FocusSequence builds the focus preset from the configured durations.
func (c *Config) FocusSequence() (phase.Sequence, error) {
	return phase.Focus(c.Focus.WorkMinutes, c.Focus.BreakMinutes, c.Focus.AutoContinue)
}
