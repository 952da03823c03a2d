package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/classmate/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider screens put a short status on the right of the header.
type StatusProvider interface {
	Status() string
}

// BackHandler screens receive Esc themselves instead of being popped.
type BackHandler interface {
	HandlesBack() bool
}

// Resumer screens reload when they become active again after a pop.
type Resumer interface {
	Resume() tea.Cmd
}
