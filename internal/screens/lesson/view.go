package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
	"github.com/abhisek/classmate/internal/ui/components"
	"github.com/abhisek/classmate/internal/ui/layout"
	"github.com/abhisek/classmate/internal/ui/theme"
)

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "y", Description: "End session"},
			{Key: "n", Description: "Keep learning"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "^P", Description: "Play/Pause"},
		{Key: "^F/^B", Description: "Seek"},
	}
	if s.activeChoice() != nil || s.state.ActiveInlessonQuestion != nil {
		hints = append(hints, layout.KeyHint{Key: "^S", Description: "Skip"})
	}
	if _, ok := s.controller.Pending(); ok {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Choose"})
	}
	return append(hints,
		layout.KeyHint{Key: "^T", Description: "Chat"},
		layout.KeyHint{Key: "Esc", Description: "End"},
	)
}

// Status reports the tutor connection for the header.
func (s *Screen) Status() string {
	if s.tutor == nil {
		return "tutor off"
	}
	st := s.state
	switch {
	case !st.Connected:
		return "○ tutor offline"
	case st.AgentSpeaking:
		return "● tutor speaking"
	case st.Muted:
		return "● tutor (muted)"
	}
	return "● tutor online"
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Incorrect.Render("Could not open lesson: "+s.errMsg)+"\n\n"+
				theme.Hint.Render("Press any key to go back"))
	}
	if !s.loaded {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Hint.Render("Loading lesson..."))
	}
	if s.confirmQuit {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Card.Render(theme.QuestionText.Render("End this session?")+"\n\n"+
				theme.Hint.Render("y to end   n to keep learning")))
	}

	inner := width - 4
	var top strings.Builder
	top.WriteString(s.viewPlayer(inner))
	top.WriteString("\n")
	if line := s.viewStatusLine(); line != "" {
		top.WriteString(line)
		top.WriteString("\n")
	}

	var bottom strings.Builder
	if q := s.viewQuestion(inner); q != "" {
		bottom.WriteString(q)
		bottom.WriteString("\n")
	}
	if a := s.viewAction(inner); a != "" {
		bottom.WriteString(a)
		bottom.WriteString("\n")
	}
	bottom.WriteString(theme.Panel.Width(inner).Render(s.input.View()))

	topStr, bottomStr := top.String(), bottom.String()
	room := height - lipgloss.Height(topStr) - lipgloss.Height(bottomStr) - 1
	var transcript string
	if s.state.PanelOpen && room > 2 {
		transcript = s.viewTranscript(inner, room)
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, topStr, transcript, bottomStr))
}

func (s *Screen) viewPlayer(width int) string {
	icon := "▶"
	status := "paused"
	switch {
	case s.player.ended:
		icon, status = "■", "ended"
	case s.player.playing:
		icon, status = "❚❚", "playing"
	}
	clock := fmt.Sprintf("%s / %s", mmss(s.player.position), mmss(s.player.duration))
	left := theme.AgentName.Render(icon) + "  " + theme.Body.Render(clock) + "  "
	right := "  " + theme.Hint.Render(status)
	barWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	bar := components.NewProgressBar("", s.player.fraction(), false, barWidth)
	return theme.Title.Render(s.lesson.Title) + "\n" + left + bar.View() + right
}

func (s *Screen) viewStatusLine() string {
	var parts []string
	switch {
	case s.state.ShowSuccessToast:
		parts = append(parts, theme.ToastSuccess.Render("✓ Correct!"))
	case s.state.ShowErrorToast:
		parts = append(parts, theme.ToastError.Render("✗ Not quite"))
	}
	if s.confetti {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("★ ✦ ★  Well done!  ★ ✦ ★"))
	}
	if s.notice != "" {
		parts = append(parts, theme.Hint.Render(s.notice))
	} else if s.idleHint() {
		parts = append(parts, theme.Hint.Render("Press ctrl+p to keep watching."))
	}
	return strings.Join(parts, "   ")
}

// idleHint reports a paused lesson with nothing else asking for input.
func (s *Screen) idleHint() bool {
	if s.player.playing || s.player.ended || s.player.position == 0 {
		return false
	}
	if s.state.Warmup.IsActive || s.state.ActiveInlessonQuestion != nil {
		return false
	}
	_, pending := s.controller.Pending()
	return !pending
}

func (s *Screen) viewTranscript(width, height int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var lines []string
	for _, m := range s.state.Messages {
		name := theme.AgentName.Render("Tutor")
		if m.Role == session.RoleUser {
			name = theme.UserName.Render("You")
		}
		text := m.Text
		if m.Partial {
			text = theme.PartialText.Render(text + " …")
		} else if m.Kind == session.KindWarmupQuestion || m.Kind == session.KindInlessonQuestion {
			text = theme.QuestionText.Render(text)
		}
		lines = append(lines, strings.Split(wrap.Render(name+": "+text), "\n")...)
	}
	if len(lines) == 0 {
		lines = []string{theme.Hint.Render("Your conversation with the tutor appears here.")}
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func (s *Screen) viewQuestion(width int) string {
	if mc := s.activeChoice(); mc != nil {
		label := "Question"
		if s.state.Warmup.IsActive {
			w := s.state.Warmup
			label = fmt.Sprintf("Warm-up %d of %d", w.CurrentIndex+1, len(w.Questions))
		}
		return theme.Card.Width(width).Render(theme.Hint.Render(label) + "\n" + mc.View())
	}
	if a := s.state.ActiveInlessonQuestion; a != nil && a.Type == quiz.TypeText {
		text := ""
		if m, ok := s.state.MessageByID(a.MessageID); ok {
			text = m.Text
		}
		return theme.Card.Width(width).Render(
			theme.QuestionText.Render(text) + "\n" + theme.Hint.Render("Type your answer below and press Enter, or ctrl+s to skip."))
	}
	return ""
}

func (s *Screen) viewAction(width int) string {
	p, ok := s.controller.Pending()
	if !ok {
		return ""
	}
	prompt := actionPrompt(p)
	var b strings.Builder
	if prompt != "" {
		b.WriteString(theme.Body.Render(prompt))
		b.WriteString("\n")
	}
	b.WriteString(s.bar.View())
	return theme.Card.Width(width).Render(b.String())
}

func actionPrompt(p actions.PendingAction) string {
	switch p.Type {
	case actions.WarmupComplete:
		md := p.Metadata
		return fmt.Sprintf("Warm-up done: %s of %s correct.", md["correct"], md["total"])
	case actions.InlessonComplete:
		return "Nice work on that question."
	case actions.LessonComplete:
		return "You finished the lesson!"
	case actions.CourseWelcome, actions.LessonWelcome:
		return "Ready when you are."
	case actions.CourseWelcomeBack, actions.LessonWelcomeBack:
		return "Good to see you again."
	}
	return ""
}

func mmss(secs float64) string {
	total := int(secs)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
