package ui

import "github.com/charmbracelet/lipgloss"

var (
	sage     = lipgloss.AdaptiveColor{Light: "#2F7D5B", Dark: "#89F0CB"}
	lavender = lipgloss.AdaptiveColor{Light: "#6B4FBB", Dark: "#B8A6F0"}
	warmGray = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	dimGray  = lipgloss.AdaptiveColor{Light: "#A0A0A0", Dark: "#4A4A4A"}
	amber    = lipgloss.AdaptiveColor{Light: "#B46A00", Dark: "#FFB347"}

	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(sage)

	subtleStyle = lipgloss.NewStyle().
			Foreground(warmGray).
			Render

	stepDoneStyle = lipgloss.NewStyle().
			Foreground(sage).
			Render

	stepCurrentStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lavender).
				Render

	stepTodoStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			Render

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lavender).
			Render

	selectedStyle = lipgloss.NewStyle().
			Foreground(sage).
			Render

	previewStyle = lipgloss.NewStyle().
			Foreground(amber).
			Render

	phaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lavender).
			MarginBottom(1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(sage).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimGray)

	noticeStyle = lipgloss.NewStyle().
			Foreground(amber).
			Render
)
