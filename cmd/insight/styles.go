package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	gainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// FormatReturn renders a fractional return as a signed percentage, green for
// gains and red for losses.
func FormatReturn(r float64) string {
	s := fmt.Sprintf("%+.2f%%", r*100)

	switch {
	case r > 0:
		return gainStyle.Render(s)
	case r < 0:
		return lossStyle.Render(s)
	default:
		return s
	}
}

// Box frames a block of text.
func Box(text string) string {
	return boxStyle.Render(text)
}
