package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the reader keybindings.
type KeyMap struct {
	// PauseResume toggles between playing and paused.
	PauseResume key.Binding

	// Stop ends the session and resets progress.
	Stop key.Binding

	// RateUp and RateDown adjust the speaking rate.
	RateUp   key.Binding
	RateDown key.Binding

	// Quit exits the reader.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		PauseResume: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		RateUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		RateDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "slower"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PauseResume, k.Stop, k.RateUp, k.RateDown, k.Quit}
}
