package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorGood    = lipgloss.Color("46")  // green
	colorWarn    = lipgloss.Color("214") // orange
	colorBad     = lipgloss.Color("196") // red
	colorInfo    = lipgloss.Color("39")  // blue
	colorMuted   = lipgloss.Color("240") // gray
	colorSpecial = lipgloss.Color("212") // pink

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorInfo)

	goodStyle  = lipgloss.NewStyle().Foreground(colorGood)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBad)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	matchStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSpecial)
)
