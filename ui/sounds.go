package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// previewEndedMsg asks the sound list to redraw once a preview may have
// expired.
type previewEndedMsg struct{ id soundscape.ID }

type soundsModel struct {
	common   *commonModel
	ids      []soundscape.ID
	cursor   int
	notice   string
	previewD time.Duration
}

func newSoundsModel(common *commonModel, cfg Config) soundsModel {
	m := soundsModel{
		common:   common,
		ids:      soundscape.All(),
		previewD: cfg.PreviewLength,
	}

	focus := common.player.Selected()
	if !focus.Valid() {
		focus = cfg.DefaultSound
	}
	for i, id := range m.ids {
		if id == focus {
			m.cursor = i
		}
	}
	return m
}

func (m soundsModel) current() soundscape.ID {
	return m.ids[m.cursor]
}

func (m soundsModel) update(msg tea.Msg) (soundsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case previewEndedMsg:
		// Nothing to do; the redraw picks up the manager's state.
		return m, nil

	case tea.KeyMsg:
		keys := m.common.keys
		m.notice = ""

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.ids)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Preview):
			return m, m.togglePreview()
		case key.Matches(msg, keys.Select):
			m.selectCurrent()
		case key.Matches(msg, keys.Next):
			if !m.common.player.Selected().Valid() {
				m.notice = "Pick a soundscape first"
				return m, nil
			}
			m.common.player.StopPreview()
			return m, navigate(screenBreathing)
		}
	}
	return m, nil
}

func (m soundsModel) togglePreview() tea.Cmd {
	p := m.common.player
	id := m.current()

	if p.IsPreviewPlaying() && p.Previewing() == id {
		p.StopPreview()
		return nil
	}
	if !p.StartPreview(id) {
		return nil
	}
	return tea.Tick(m.previewD+50*time.Millisecond, func(time.Time) tea.Msg {
		return previewEndedMsg{id: id}
	})
}

func (m *soundsModel) selectCurrent() {
	id := m.current()
	if err := m.common.player.Select(id); err != nil {
		log.Warn("Could not select soundscape", "id", int(id), "error", err)
		return
	}
	if err := m.common.settings.Save(SoundKey, int(id)); err != nil {
		log.Warn("Could not save soundscape selection", "error", err)
	}
}

func (m soundsModel) view() string {
	p := m.common.player
	selected := p.Selected()
	previewing := soundscape.ID(0)
	if p.IsPreviewPlaying() {
		previewing = p.Previewing()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose your soundscape"))
	b.WriteString("\n\n")

	for i, id := range m.ids {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle("> ")
		}

		name := fmt.Sprintf("%-12s", id.String())
		if id == selected {
			name = selectedStyle("● " + name)
		} else {
			name = "  " + name
		}

		line := cursor + name + " " + subtleStyle(id.Description())
		if id == previewing {
			line += " " + previewStyle("♪ previewing")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle(m.notice))
		b.WriteString("\n")
	}
	return b.String()
}
