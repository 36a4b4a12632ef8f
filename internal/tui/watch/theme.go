// Package watch implements the live bridge activity TUI. It is a thin
// client of the admin API: health comes from /healthz, activity from the
// /v1/events stream.
package watch

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the watch TUI.
type Theme struct {
	Header    lipgloss.Style
	StatusOK  lipgloss.Style
	StatusBad lipgloss.Style
	Timestamp lipgloss.Style
	EventType lipgloss.Style
	ErrorText lipgloss.Style
	Help      lipgloss.Style
}

// DefaultTheme returns the built-in color scheme.
func DefaultTheme() Theme {
	return Theme{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		StatusOK:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusBad: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		EventType: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ErrorText: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
