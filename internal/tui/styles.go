package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains the pre-configured lipgloss styles for the reader view.
type Styles struct {
	Title  lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style
	State  lipgloss.Style
	Error  lipgloss.Style
	Help   lipgloss.Style
}

// DefaultStyles returns the reader's default styling.
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")),

		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),

		State: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#06B6D4")),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
	}
}
