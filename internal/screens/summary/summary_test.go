package summary

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/session"
)

func testSummary() session.Summary {
	return session.Summary{
		WarmupTotal:      3,
		WarmupCorrect:    2,
		WarmupIncorrect:  1,
		InlessonAnswered: 2,
		InlessonSkipped:  1,
		InlessonPending:  1,
		Completion:       64,
		Messages:         9,
	}
}

func containsText(view, want string) bool {
	return strings.Contains(ansi.Strip(view), want)
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New("Variables", testSummary())
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := New("Variables", testSummary())
	view := s.View(80, 24)
	for _, want := range []string{"Session complete!", "Variables", "2 of 3 correct", "2 answered", "1 awaiting feedback", "9 messages"} {
		if !containsText(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_LessonCompleteHeading(t *testing.T) {
	sum := session.Summary{Completion: 100, VideoEnded: true}
	view := New("Loops", sum).View(80, 24)
	if !containsText(view, "Lesson complete!") {
		t.Error("expected lesson complete heading")
	}
	if containsText(view, "Warm-up") {
		t.Error("warm-up section shown without warm-up questions")
	}
}

func TestSummaryScreen_Navigation_Enter(t *testing.T) {
	s := New("Variables", testSummary())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter (pop)")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestSummaryScreen_Navigation_Esc(t *testing.T) {
	s := New("Variables", testSummary())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Error("expected a command on Esc (pop)")
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s := New("Variables", testSummary())
	hints := s.KeyHints()
	if len(hints) != 2 {
		t.Errorf("KeyHints length = %d, want 2", len(hints))
	}
}
