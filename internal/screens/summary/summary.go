package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/session"
	"github.com/abhisek/classmate/internal/ui/components"
	"github.com/abhisek/classmate/internal/ui/layout"
	"github.com/abhisek/classmate/internal/ui/theme"
)

// SummaryScreen displays what happened in a finished lesson session.
type SummaryScreen struct {
	lessonTitle string
	summary     session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(lessonTitle string, summary session.Summary) *SummaryScreen {
	return &SummaryScreen{lessonTitle: lessonTitle, summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Back to course"},
		{Key: "Esc", Description: "Back to course"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	center := func(style lipgloss.Style, text string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(text))
	}

	var b strings.Builder

	heading := "Session complete!"
	if sum.VideoEnded {
		heading = "Lesson complete!"
	}
	b.WriteString(center(theme.Title, heading))
	b.WriteString("\n")
	if s.lessonTitle != "" {
		b.WriteString(center(theme.Subtitle, s.lessonTitle))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	bar := components.NewProgressBar("Watched", sum.Completion/100, true, min(width-8, 50))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(min(width-8, 50), 10)))

	if sum.WarmupTotal > 0 {
		b.WriteString(center(theme.Hint, "Warm-up"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		line := fmt.Sprintf("%d of %d correct    %d skipped    accuracy %.0f%%",
			sum.WarmupCorrect, sum.WarmupTotal, sum.WarmupSkipped, sum.WarmupAccuracy()*100)
		b.WriteString(center(theme.Body, line))
		b.WriteString("\n\n")
	}

	asked := sum.InlessonAnswered + sum.InlessonSkipped + sum.InlessonPending
	if asked > 0 {
		b.WriteString(center(theme.Hint, "Lesson questions"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		line := fmt.Sprintf("%d answered    %d skipped", sum.InlessonAnswered, sum.InlessonSkipped)
		if sum.InlessonPending > 0 {
			line += fmt.Sprintf("    %d awaiting feedback", sum.InlessonPending)
		}
		b.WriteString(center(theme.Body, line))
		b.WriteString("\n\n")
	}

	b.WriteString(center(theme.Hint, fmt.Sprintf("%d messages with your tutor", sum.Messages)))
	b.WriteString("\n")

	return b.String()
}
