package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/store"
	"github.com/abhisek/classmate/internal/ui/layout"
	"github.com/abhisek/classmate/internal/ui/theme"
)

const historyLimit = 50

type historyLoadedMsg struct {
	Sessions []store.SessionRecord
	Lessons  map[string]string // lessonID → title
	Err      error
}

// HistoryScreen displays the learner's past sessions.
type HistoryScreen struct {
	st       *store.Store
	userID   string
	sessions []store.SessionRecord
	lessons  map[string]string
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(st *store.Store, userID string) *HistoryScreen {
	return &HistoryScreen{
		st:       st,
		userID:   userID,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	st, userID := s.st, s.userID
	return func() tea.Msg {
		ctx := context.Background()

		sessions, err := st.RecentSessions(ctx, userID, historyLimit)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}

		// Titles are best effort; a deleted lesson falls back to its id.
		titles := make(map[string]string)
		for _, sess := range sessions {
			if sess.LessonID == "" {
				continue
			}
			if _, seen := titles[sess.LessonID]; seen {
				continue
			}
			titles[sess.LessonID] = sess.LessonID
			if l, err := st.Lesson(ctx, sess.LessonID); err == nil && l != nil {
				titles[sess.LessonID] = l.Title
			}
		}
		return historyLoadedMsg{Sessions: sessions, Lessons: titles}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
			s.lessons = msg.Lessons
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) lessonTitle(sess store.SessionRecord) string {
	if sess.LessonID == "" {
		return "Course introduction"
	}
	if t, ok := s.lessons[sess.LessonID]; ok {
		return t
	}
	return sess.LessonID
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions yet. Pick a course to get started!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		dateStr := sess.StartedAt.Local().Format("Jan 02, 2006 15:04")
		durationStr := "in progress"
		if sess.EndedAt != nil {
			d := int(sess.EndedAt.Sub(sess.StartedAt).Seconds())
			durationStr = fmt.Sprintf("%d:%02d", d/60, d%60)
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %s  %s", prefix, dateStr, durationStr, s.lessonTitle(sess))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, detail := range details(sess) {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render("    "+detail)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func details(sess store.SessionRecord) []string {
	out := []string{"Started as " + strings.ReplaceAll(sess.SessionType, "_", " ")}
	if sess.WarmupTotal > 0 {
		out = append(out, fmt.Sprintf("Warm-up %d of %d correct", sess.WarmupCorrect, sess.WarmupTotal))
	}
	if n := sess.QuestionsAnswered + sess.QuestionsSkipped; n > 0 {
		out = append(out, fmt.Sprintf("%d questions answered, %d skipped", sess.QuestionsAnswered, sess.QuestionsSkipped))
	}
	if sess.EndedAt == nil {
		out = append(out, "Session was not closed")
	}
	return out
}
