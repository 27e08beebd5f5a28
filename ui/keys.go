package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Preview key.Binding
	Select  key.Binding

	Toggle key.Binding
	Reset  key.Binding

	WorkUp    key.Binding
	WorkDown  key.Binding
	BreakUp   key.Binding
	BreakDown key.Binding

	Next key.Binding
	Back key.Binding
	Help key.Binding
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "start/pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		WorkUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "focus minutes"),
		),
		WorkDown: key.NewBinding(
			key.WithKeys("-", "_"),
		),
		BreakUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("[/]", "break minutes"),
		),
		BreakDown: key.NewBinding(
			key.WithKeys("["),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "tab"),
			key.WithHelp("n", "continue"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc", "shift+tab"),
			key.WithHelp("b", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// screenKeys narrows the bindings shown in help to the ones a screen
// handles.
type screenKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k screenKeys) ShortHelp() []key.Binding  { return k.short }
func (k screenKeys) FullHelp() [][]key.Binding { return k.full }

func (k keyMap) forScreen(s screen) screenKeys {
	switch s {
	case screenSounds:
		return screenKeys{
			short: []key.Binding{k.Preview, k.Select, k.Next, k.Help, k.Quit},
			full: [][]key.Binding{
				{k.Up, k.Down},
				{k.Preview, k.Select},
				{k.Next, k.Help, k.Quit},
			},
		}
	case screenFocus:
		return screenKeys{
			short: []key.Binding{k.Toggle, k.Reset, k.Next, k.Back, k.Help, k.Quit},
			full: [][]key.Binding{
				{k.Toggle, k.Reset},
				{k.WorkUp, k.BreakUp},
				{k.Next, k.Back, k.Help, k.Quit},
			},
		}
	default:
		return screenKeys{
			short: []key.Binding{k.Toggle, k.Reset, k.Next, k.Back, k.Help, k.Quit},
			full: [][]key.Binding{
				{k.Toggle, k.Reset},
				{k.Next, k.Back, k.Help, k.Quit},
			},
		}
	}
}
