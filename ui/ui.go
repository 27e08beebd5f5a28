// Package ui provides calmstep's terminal screens: soundscape selection, the
// breathing exercise and the focus timer.
package ui

import (
	"strings"

	"github.com/calmstep/calmstep/internal/phase"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Settings keys.
const (
	SoundKey = "sound"
	FocusKey = "focus"
)

// FocusDurations is the persisted shape of the last focus durations.
type FocusDurations struct {
	Work  int `yaml:"work_minutes"`
	Break int `yaml:"break_minutes"`
}

// Player is the playback surface the screens drive.
type Player interface {
	StartLoop(id soundscape.ID) bool
	StopLoop()
	StartPreview(id soundscape.ID) bool
	StopPreview()
	IsPlaying() bool
	IsPreviewPlaying() bool
	Previewing() soundscape.ID
	Select(id soundscape.ID) error
	Selected() soundscape.ID
	SelectedName() string
	StartSelected() bool
	Close()
}

// Settings persists small choices between runs.
type Settings interface {
	Load(key string, v any) bool
	Save(key string, v any) error
}

// screen is the step of the session the user is on.
type screen int

const (
	screenSounds screen = iota
	screenBreathing
	screenFocus
)

func (s screen) String() string {
	return map[screen]string{
		screenSounds:    "sounds",
		screenBreathing: "breathing",
		screenFocus:     "focus",
	}[s]
}

// parseScreen maps a start screen name to a screen. The empty string means
// the sound list.
func parseScreen(name string) (screen, error) {
	switch strings.ToLower(name) {
	case "", "sounds":
		return screenSounds, nil
	case "breathe", "breathing":
		return screenBreathing, nil
	case "focus", "timer":
		return screenFocus, nil
	}
	return 0, errors.Newf("unknown screen %q", name)
}

// navigateMsg moves the program to another screen.
type navigateMsg struct{ to screen }

func navigate(to screen) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	player   Player
	settings Settings
	keys     keyMap
	width    int
	height   int
}

type model struct {
	common *commonModel
	screen screen

	sounds    soundsModel
	breathing sessionModel
	focus     sessionModel

	help help.Model
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, player Player, settings Settings) (*tea.Program, error) {
	m, err := newModel(cfg, player, settings)
	if err != nil {
		return nil, err
	}

	log.Debug("Starting calmstep", "screen", m.screen, "tick", cfg.TickInterval)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(m, opts...), nil
}

func newModel(cfg Config, player Player, settings Settings) (model, error) {
	start, err := parseScreen(cfg.Start)
	if err != nil {
		return model{}, err
	}

	common := &commonModel{
		player:   player,
		settings: settings,
		keys:     newKeyMap(),
	}

	var stored int
	if settings.Load(SoundKey, &stored) {
		if err := player.Select(soundscape.ID(stored)); err != nil {
			log.Warn("Ignoring stored soundscape", "id", stored, "error", err)
		}
	}
	if !player.Selected().Valid() && start != screenSounds && cfg.DefaultSound.Valid() {
		_ = player.Select(cfg.DefaultSound)
	}

	durations := FocusDurations{Work: cfg.WorkMinutes, Break: cfg.BreakMinutes}
	saved := durations
	if settings.Load(FocusKey, &saved) && phase.ValidateFocusDurations(saved.Work, saved.Break) == nil {
		durations = saved
	}
	focusSeq, err := phase.Focus(durations.Work, durations.Break, cfg.AutoContinue)
	if err != nil {
		return model{}, err
	}

	breathing, err := newSessionModel(common, screenBreathing, phase.Breathing(), cfg.TickInterval)
	if err != nil {
		return model{}, err
	}
	focus, err := newSessionModel(common, screenFocus, focusSeq, cfg.TickInterval)
	if err != nil {
		return model{}, err
	}

	return model{
		common:    common,
		screen:    start,
		sounds:    newSoundsModel(common, cfg),
		breathing: breathing,
		focus:     focus,
		help:      help.New(),
	}, nil
}

func (m model) Init() tea.Cmd {
	return tea.SetWindowTitle("calmstep")
}

// teardown stops every timer and sound the screens own.
func (m *model) teardown() {
	m.breathing.teardown()
	m.focus.teardown()
	m.common.player.Close()
}

func (m *model) leave(s screen) {
	switch s {
	case screenSounds:
		m.common.player.StopPreview()
	case screenBreathing:
		m.breathing.teardown()
	case screenFocus:
		m.focus.teardown()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.common.keys.Quit):
			m.teardown()
			return m, tea.Quit
		case key.Matches(msg, m.common.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case m.screen == screenSounds && key.Matches(msg, m.common.keys.Back):
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.help.Width = msg.Width
		m.breathing, _ = m.breathing.update(msg)
		m.focus, _ = m.focus.update(msg)
		return m, nil

	case navigateMsg:
		if msg.to == m.screen || msg.to < screenSounds || msg.to > screenFocus {
			return m, nil
		}
		log.Debug("Navigating", "from", m.screen, "to", msg.to)
		m.leave(m.screen)
		m.screen = msg.to
		return m, nil

	case tickMsg:
		var cmd tea.Cmd
		switch msg.screen {
		case screenBreathing:
			m.breathing, cmd = m.breathing.update(msg)
		case screenFocus:
			m.focus, cmd = m.focus.update(msg)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenSounds:
		m.sounds, cmd = m.sounds.update(msg)
	case screenBreathing:
		m.breathing, cmd = m.breathing.update(msg)
	case screenFocus:
		m.focus, cmd = m.focus.update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var body string
	switch m.screen {
	case screenSounds:
		body = m.sounds.view()
	case screenBreathing:
		body = m.breathing.view()
	case screenFocus:
		body = m.focus.view()
	}

	return appStyle.Render(
		stepper(m.screen) + "\n\n" +
			body + "\n" +
			m.help.View(m.common.keys.forScreen(m.screen)),
	)
}

// stepper renders the progress through the three steps.
func stepper(current screen) string {
	steps := []struct {
		s     screen
		label string
	}{
		{screenSounds, "Sounds"},
		{screenBreathing, "Breathe"},
		{screenFocus, "Focus"},
	}

	parts := make([]string, len(steps))
	for i, st := range steps {
		switch {
		case st.s < current:
			parts[i] = stepDoneStyle("✓ " + st.label)
		case st.s == current:
			parts[i] = stepCurrentStyle("● " + st.label)
		default:
			parts[i] = stepTodoStyle("○ " + st.label)
		}
	}
	return strings.Join(parts, stepTodoStyle(" ─ "))
}
