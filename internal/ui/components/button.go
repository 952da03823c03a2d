package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/ui/theme"
)

// ActionBar renders the buttons of an action overlay.
type ActionBar struct {
	Buttons  []actions.Button
	Selected int
	Disabled bool
	OnPress  func(buttonID string) tea.Cmd
}

// NewActionBar creates a bar for def with the first button selected.
func NewActionBar(def actions.Definition, onPress func(buttonID string) tea.Cmd) ActionBar {
	return ActionBar{Buttons: def.Buttons, OnPress: onPress}
}

// Update handles tab navigation and enter.
func (b ActionBar) Update(msg tea.Msg) (ActionBar, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(b.Buttons) == 0 {
		return b, nil
	}

	switch kmsg.String() {
	case "tab", "right":
		b.Selected = (b.Selected + 1) % len(b.Buttons)
	case "shift+tab", "left":
		b.Selected = (b.Selected + len(b.Buttons) - 1) % len(b.Buttons)
	case "enter":
		if b.Disabled || b.OnPress == nil {
			return b, nil
		}
		return b, b.OnPress(b.Buttons[b.Selected].ID)
	}
	return b, nil
}

// View renders the buttons side by side.
func (b ActionBar) View() string {
	parts := make([]string, 0, len(b.Buttons))
	for i, btn := range b.Buttons {
		label := btn.Label
		if i == b.Selected {
			label = "▸ " + label
		}
		var style lipgloss.Style
		switch {
		case b.Disabled:
			style = theme.ButtonDisabled
		case btn.Variant == actions.VariantPrimary:
			style = theme.ButtonPrimary
		default:
			style = theme.ButtonSecondary
		}
		parts = append(parts, style.Render(label))
	}
	return strings.Join(parts, "  ")
}
