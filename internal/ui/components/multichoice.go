package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. It does not know the correct
// answer; scoring happens in the session.
type MultiChoice struct {
	QuestionID string
	Question   string
	Options    []string
	Selected   int
	OnChoose   func(questionID, option string) tea.Cmd
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(questionID, question string, options []string, onChoose func(questionID, option string) tea.Cmd) MultiChoice {
	return MultiChoice{
		QuestionID: questionID,
		Question:   question,
		Options:    options,
		OnChoose:   onChoose,
	}
}

// Update handles keyboard navigation and selection. Number keys choose
// directly.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Options) == 0 {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		return m, m.choose()
	default:
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(m.Options) {
			m.Selected = int(key[0] - '1')
			return m, m.choose()
		}
	}
	return m, nil
}

func (m MultiChoice) choose() tea.Cmd {
	if m.OnChoose == nil {
		return nil
	}
	return m.OnChoose(m.QuestionID, m.Options[m.Selected])
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(theme.QuestionText.Render(m.Question))
	b.WriteString("\n")

	for i, opt := range m.Options {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == m.Selected {
			prefix = "▸ "
			style = theme.Selected
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%d) %s", prefix, i+1, opt)))
		b.WriteString("\n")
	}
	return b.String()
}
