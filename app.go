package main

import (
	"context"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/config"
	"github.com/calmstep/calmstep/internal/lifecycle"
	"github.com/calmstep/calmstep/internal/playback"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/calmstep/calmstep/internal/store"
	"github.com/calmstep/calmstep/ui"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	gap "github.com/muesli/go-app-paths"
)

// app holds the long-lived pieces every command shares.
type app struct {
	cfg      *config.Config
	graph    *audio.Graph
	player   *playback.Manager
	settings *store.Store
}

func newApp(cfg *config.Config) (*app, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	settings, err := openSettings(cfg)
	if err != nil {
		return nil, err
	}

	audio.SetDefaultOptions(cfg.AudioOptions())
	graph := audio.Default()

	return &app{
		cfg:      cfg,
		graph:    graph,
		player:   playback.New(graph, cfg.PlaybackConfig()),
		settings: settings,
	}, nil
}

func openSettings(cfg *config.Config) (*store.Store, error) {
	path := cfg.State.Path
	if path == "" {
		p, err := gap.NewScope(gap.User, "calmstep").DataPath(store.FileName)
		if err != nil {
			return nil, errors.Wrap(err, "unable to find data directory")
		}
		path = p
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open state")
	}
	log.Debug("Using state file", "path", s.Path())
	return s, nil
}

// register adds the audio components to lm. Shutdown runs in reverse, so
// playback stops before the device closes.
func (a *app) register(lm *lifecycle.Manager) {
	lm.RegisterFunc("audio graph", func(context.Context) error {
		return a.graph.Close()
	})
	lm.Register("playback", a.player)
}

// selected returns the stored soundscape, falling back to the configured
// default.
func (a *app) selected() soundscape.ID {
	var stored int
	if a.settings.Load(ui.SoundKey, &stored) && soundscape.ID(stored).Valid() {
		return soundscape.ID(stored)
	}
	return a.cfg.DefaultSound()
}

func (a *app) uiConfig(start string) (ui.Config, error) {
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return ui.Config{}, errors.Wrap(err, "error parsing config")
	}

	uiCfg.WorkMinutes = a.cfg.Focus.WorkMinutes
	uiCfg.BreakMinutes = a.cfg.Focus.BreakMinutes
	uiCfg.AutoContinue = a.cfg.Focus.AutoContinue
	uiCfg.DefaultSound = a.cfg.DefaultSound()
	uiCfg.PreviewLength = a.cfg.Sounds.PreviewLength
	uiCfg.Start = start
	return uiCfg, nil
}

// runTUI starts the interactive program on the given screen. Without a
// terminal it falls back to the plain session runner.
func runTUI(start string) error {
	if !interactive() {
		switch start {
		case "breathe", "focus":
			return runPlain(start)
		}
		return errors.New("the sound picker needs a terminal: try `calmstep sounds list`")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	uiCfg, err := a.uiConfig(start)
	if err != nil {
		return err
	}

	p, err := ui.NewProgram(uiCfg, a.player, a.settings)
	if err != nil {
		return err
	}

	lm := lifecycle.New(lifecycle.OnSignal(func(os.Signal) { p.Quit() }))
	a.register(lm)
	lm.Start()

	_, runErr := p.Run()
	if err := lm.Shutdown(); err != nil {
		log.Error("Shutdown failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return errors.Wrap(runErr, "unable to run tui program")
}
