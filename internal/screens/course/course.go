// Package course shows one course's lessons and the learner's progress
// through them.
package course

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/screens/lesson"
	"github.com/abhisek/classmate/internal/store"
	"github.com/abhisek/classmate/internal/ui/components"
	"github.com/abhisek/classmate/internal/ui/layout"
	"github.com/abhisek/classmate/internal/ui/theme"
)

type loadedMsg struct {
	Lessons  []store.Lesson
	Progress map[string]store.LessonProgress
	Err      error
}

// CourseScreen lists a course's published lessons.
type CourseScreen struct {
	deps     lesson.Deps
	course   store.Course
	lessons  []store.Lesson
	progress map[string]store.LessonProgress
	menu     components.Menu
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*CourseScreen)(nil)
var _ screen.KeyHintProvider = (*CourseScreen)(nil)
var _ screen.Resumer = (*CourseScreen)(nil)

// New creates a course screen.
func New(deps lesson.Deps, c store.Course) *CourseScreen {
	return &CourseScreen{deps: deps, course: c}
}

func (s *CourseScreen) Init() tea.Cmd {
	return s.load()
}

// Resume reloads progress when a lesson session ends.
func (s *CourseScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *CourseScreen) load() tea.Cmd {
	st, userID, courseID := s.deps.Store, s.deps.Config.UserID, s.course.ID
	return func() tea.Msg {
		ctx := context.Background()
		lessons, err := st.PublishedLessons(ctx, courseID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		rows, err := st.ProgressForCourse(ctx, userID, courseID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		progress := make(map[string]store.LessonProgress, len(rows))
		for _, p := range rows {
			progress[p.LessonID] = p
		}
		return loadedMsg{Lessons: lessons, Progress: progress}
	}
}

func (s *CourseScreen) Title() string {
	return s.course.Title
}

func (s *CourseScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start lesson"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *CourseScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(loadedMsg); ok {
		s.loaded = true
		if msg.Err != nil {
			s.deps.Logger.Error("load course failed", "course_id", s.course.ID, "error", msg.Err)
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.lessons = msg.Lessons
		s.progress = msg.Progress
		selected := s.menu.Selected
		s.menu = components.NewMenu(s.menuItems())
		if selected < len(s.menu.Items) {
			s.menu.Selected = selected
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

// NextLesson returns the first published lesson not yet completed, or the
// first lesson when everything is done.
func (s *CourseScreen) NextLesson() (store.Lesson, bool) {
	if len(s.lessons) == 0 {
		return store.Lesson{}, false
	}
	for _, l := range s.lessons {
		if s.progress[l.ID].Status != store.StatusCompleted {
			return l, true
		}
	}
	return s.lessons[0], true
}

func (s *CourseScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(s.lessons)+1)
	if next, ok := s.NextLesson(); ok {
		label := "Start the course"
		if len(s.progress) > 0 {
			label = "Continue: " + next.Title
		}
		items = append(items, components.MenuItem{Label: label, Action: s.open(next, true)})
	}
	for i, l := range s.lessons {
		items = append(items, components.MenuItem{
			Label:  fmt.Sprintf("%s %2d. %s", statusMark(s.progress[l.ID]), i+1, l.Title),
			Action: s.open(l, false),
		})
	}
	return items
}

func (s *CourseScreen) open(l store.Lesson, courseLevel bool) func() tea.Cmd {
	deps, c := s.deps, s.course
	return func() tea.Cmd {
		return func() tea.Msg {
			return router.PushScreenMsg{Screen: lesson.New(deps, c, l, courseLevel)}
		}
	}
}

func statusMark(p store.LessonProgress) string {
	switch p.Status {
	case store.StatusCompleted:
		return "✓"
	case store.StatusInProgress:
		return "◐"
	}
	return "·"
}

func (s *CourseScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(s.course.Title))
	b.WriteString("\n")
	if s.course.Description != "" {
		b.WriteString(theme.Subtitle.Width(min(width-4, 80)).Render(s.course.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case s.errMsg != "":
		b.WriteString(theme.Incorrect.Render("Error: " + s.errMsg))
	case !s.loaded:
		b.WriteString(theme.Hint.Render("Loading lessons..."))
	case len(s.lessons) == 0:
		b.WriteString(theme.Hint.Render("This course has no published lessons yet."))
	default:
		done := 0
		for _, l := range s.lessons {
			if s.progress[l.ID].Status == store.StatusCompleted {
				done++
			}
		}
		bar := components.NewProgressBar("Progress", float64(done)/float64(len(s.lessons)), true, min(width-4, 60))
		b.WriteString(bar.View())
		b.WriteString("\n\n")
		b.WriteString(s.menu.View())
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
