package main

import "github.com/charmbracelet/lipgloss"

// Broadcast palette on a dark background
var (
	primary    = lipgloss.Color("#FF6B35")
	secondary  = lipgloss.Color("#1E88E5")
	liveGreen  = lipgloss.Color("#66BB6A")
	standby    = lipgloss.Color("#FFC107")
	textBright = lipgloss.Color("#FFFFFF")
	muted      = lipgloss.Color("#90A4AE")
	panelBg    = lipgloss.Color("#161B26")
	borderDark = lipgloss.Color("#30363D")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(textBright).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary)

	clockStyle = lipgloss.NewStyle().
			Foreground(textBright).
			Background(panelBg).
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.ThickBorder()).
			BorderForeground(primary)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderDark).
			Padding(0, 2)

	runningStyle = lipgloss.NewStyle().Foreground(liveGreen).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(standby).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(secondary).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
)
