package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/calmstep/calmstep/internal/phase"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// tickMsg is one second of session time. Ticks carry the generation that
// scheduled them; any start, pause, reset or teardown bumps the generation so
// stale ticks are dropped.
type tickMsg struct {
	screen screen
	gen    int
}

// loopSync keeps the soundscape loop in step with a focus session: it plays
// only while a work phase is running.
type loopSync struct {
	player  Player
	engine  *phase.Engine
	enabled bool
}

func (l *loopSync) onTransition(phase.Transition) {
	l.apply()
}

func (l *loopSync) apply() {
	if !l.enabled || l.engine == nil {
		return
	}
	want := wantsLoop(l.engine.Snapshot())
	switch {
	case want && !l.player.IsPlaying():
		l.player.StartSelected()
	case !want && l.player.IsPlaying():
		l.player.StopLoop()
	}
}

func wantsLoop(s phase.Snapshot) bool {
	return s.Running() && s.Kind == phase.Work
}

type sessionModel struct {
	common   *commonModel
	screen   screen
	engine   *phase.Engine
	sync     *loopSync
	interval time.Duration
	gen      int
	bar      progress.Model
	notice   string
}

func newSessionModel(common *commonModel, s screen, seq phase.Sequence, interval time.Duration) (sessionModel, error) {
	sync := &loopSync{player: common.player, enabled: s == screenFocus}
	e, err := phase.New(seq, phase.WithObserver(sync.onTransition))
	if err != nil {
		return sessionModel{}, err
	}
	sync.engine = e

	if interval <= 0 {
		interval = time.Second
	}
	return sessionModel{
		common:   common,
		screen:   s,
		engine:   e,
		sync:     sync,
		interval: interval,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}, nil
}

func (m sessionModel) tick() tea.Cmd {
	msg := tickMsg{screen: m.screen, gen: m.gen}
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return msg
	})
}

// start runs or resumes the engine and schedules the next tick.
func (m *sessionModel) start() tea.Cmd {
	if !m.engine.Start() {
		return nil
	}
	m.gen++
	m.sync.apply()
	log.Debug("Session started", "screen", m.screen, "phase", m.engine.Snapshot().Kind)
	return m.tick()
}

func (m *sessionModel) pause() {
	m.gen++
	if m.engine.Pause() {
		log.Debug("Session paused", "screen", m.screen)
	}
	m.sync.apply()
}

func (m *sessionModel) reset() {
	m.gen++
	m.engine.Reset()
	m.sync.apply()
}

// teardown cancels pending ticks and silences the loop when the screen is
// left.
func (m *sessionModel) teardown() {
	m.pause()
	if m.sync.enabled {
		m.common.player.StopLoop()
	}
}

func (m sessionModel) update(msg tea.Msg) (sessionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.screen != m.screen || msg.gen != m.gen {
			return m, nil
		}
		m.engine.Tick()
		if m.engine.Status() == phase.StatusRunning {
			return m, m.tick()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-8, 60)
		return m, nil

	case tea.KeyMsg:
		keys := m.common.keys
		m.notice = ""

		switch {
		case key.Matches(msg, keys.Toggle):
			if m.engine.Status() == phase.StatusRunning {
				m.pause()
				return m, nil
			}
			return m, m.start()
		case key.Matches(msg, keys.Reset):
			m.reset()
		case key.Matches(msg, keys.Next):
			if !m.engine.CanAdvanceStage() {
				m.notice = "Complete at least one cycle to continue"
				return m, nil
			}
			m.teardown()
			if m.screen == screenBreathing {
				return m, navigate(screenFocus)
			}
			return m, tea.Quit
		case key.Matches(msg, keys.Back):
			m.teardown()
			return m, navigate(m.screen - 1)
		case m.screen == screenFocus && key.Matches(msg, keys.WorkUp):
			m.adjust(phase.Work, 1)
		case m.screen == screenFocus && key.Matches(msg, keys.WorkDown):
			m.adjust(phase.Work, -1)
		case m.screen == screenFocus && key.Matches(msg, keys.BreakUp):
			m.adjust(phase.Break, 1)
		case m.screen == screenFocus && key.Matches(msg, keys.BreakDown):
			m.adjust(phase.Break, -1)
		}
	}
	return m, nil
}

// adjust changes a focus duration by delta minutes within its bounds.
func (m *sessionModel) adjust(k phase.Kind, delta int) {
	seconds, ok := m.engine.Duration(k)
	if !ok {
		return
	}
	minutes := seconds/60 + delta

	lo, hi := phase.MinWorkMinutes, phase.MaxWorkMinutes
	if k == phase.Break {
		lo, hi = phase.MinBreakMinutes, phase.MaxBreakMinutes
	}
	if minutes < lo || minutes > hi {
		return
	}

	if err := m.engine.SetDuration(k, minutes*60); err != nil {
		if errors.Is(err, phase.ErrRunning) {
			m.notice = "Pause the timer to change durations"
			return
		}
		log.Warn("Could not change duration", "kind", k, "error", err)
		return
	}

	work, _ := m.engine.Duration(phase.Work)
	brk, _ := m.engine.Duration(phase.Break)
	d := FocusDurations{Work: work / 60, Break: brk / 60}
	if err := m.common.settings.Save(FocusKey, d); err != nil {
		log.Warn("Could not save focus durations", "error", err)
	}
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// statusLine describes the session in words.
func statusLine(s phase.Snapshot) string {
	switch s.Status {
	case phase.StatusTerminal:
		return phase.CompleteLabel
	case phase.StatusIdle:
		if s.Kind == phase.Work {
			return "Ready to Start"
		}
		return "Ready to Begin"
	case phase.StatusHeld:
		return "Ready for Next Cycle"
	case phase.StatusPaused:
		return "Paused: " + phase.Label(s.Kind)
	default:
		return phase.Label(s.Kind)
	}
}

func (m sessionModel) view() string {
	s := m.engine.Snapshot()

	var b strings.Builder
	title := "Breathing"
	if m.screen == screenFocus {
		title = "Focus"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(phaseStyle.Render(statusLine(s)))
	b.WriteString("\n")
	if s.Status == phase.StatusRunning || s.Status == phase.StatusPaused {
		if instr := phase.Instruction(s.Kind); instr != "" {
			b.WriteString(subtleStyle(instr))
			b.WriteString("\n")
		}
	}
	b.WriteString(clockStyle.Render(formatClock(s.Remaining)))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(s.Progress()))
	b.WriteString("\n\n")

	b.WriteString(subtleStyle(fmt.Sprintf("Cycle %d of %d completed", s.Completed, s.Cycles)))
	b.WriteString("\n")

	if m.screen == screenFocus {
		work, _ := m.engine.Duration(phase.Work)
		brk, _ := m.engine.Duration(phase.Break)
		line := fmt.Sprintf("Focus %d min · Break %d min", work/60, brk/60)
		if name := m.common.player.SelectedName(); name != "" {
			line += " · " + name
			if m.common.player.IsPlaying() {
				line += " ♪"
			}
		}
		b.WriteString(subtleStyle(line))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle(m.notice))
		b.WriteString("\n")
	}
	return b.String()
}
