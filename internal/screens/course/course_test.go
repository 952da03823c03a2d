package course

import (
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/classmate/internal/config"
	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screens/lesson"
	"github.com/abhisek/classmate/internal/store"
)

const testCourse = `{
  "id": "go-101",
  "title": "Go Basics",
  "description": "Learn the basics.",
  "modules": [
    {"id": "m1", "title": "Intro", "position": 0, "lessons": [
      {"id": "l-intro", "title": "Introduction", "position": 0, "duration_secs": 120},
      {"id": "l-loops", "title": "Loops", "position": 1, "duration_secs": 600},
      {"id": "l-draft", "title": "Draft", "position": 2, "published": false}
    ]}
  ]
}`

func setup(t *testing.T) (lesson.Deps, store.Course) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "course.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	doc, err := store.ParseCourse([]byte(testCourse))
	require.NoError(t, err)
	require.NoError(t, st.ImportCourse(t.Context(), doc))

	c, err := st.Course(t.Context(), "go-101")
	require.NoError(t, err)

	deps := lesson.Deps{
		Store:  st,
		Config: &config.Config{UserID: "u1"},
		Logger: logger.NewNop(),
	}
	return deps, *c
}

func loadScreen(t *testing.T, s *CourseScreen) {
	t.Helper()
	msg := s.Init()()
	s.Update(msg)
	require.Empty(t, s.errMsg)
}

func labels(s *CourseScreen) []string {
	out := make([]string, 0, len(s.menu.Items))
	for _, it := range s.menu.Items {
		out = append(out, it.Label)
	}
	return out
}

func TestCourseScreen_ListsPublishedLessons(t *testing.T) {
	deps, c := setup(t)
	s := New(deps, c)
	loadScreen(t, s)

	assert.Equal(t, "Go Basics", s.Title())
	assert.Equal(t, []string{
		"Start the course",
		"·  1. Introduction",
		"·  2. Loops",
	}, labels(s))

	view := ansi.Strip(s.View(100, 30))
	assert.Contains(t, view, "Learn the basics.")
	assert.NotContains(t, view, "Draft")
}

func TestCourseScreen_ContinueSkipsCompletedLessons(t *testing.T) {
	deps, c := setup(t)
	ctx := t.Context()
	require.NoError(t, deps.Store.UpdateLessonProgress(ctx, store.ProgressInput{
		UserID: "u1", LessonID: "l-intro", LastPosition: 120, CompletionPercentage: 100, VideoEnded: true,
	}))
	require.NoError(t, deps.Store.UpdateLessonProgress(ctx, store.ProgressInput{
		UserID: "u1", LessonID: "l-loops", LastPosition: 60, CompletionPercentage: 10,
	}))

	s := New(deps, c)
	loadScreen(t, s)

	next, ok := s.NextLesson()
	require.True(t, ok)
	assert.Equal(t, "l-loops", next.ID)

	got := labels(s)
	assert.Equal(t, "Continue: Loops", got[0])
	assert.True(t, strings.HasPrefix(got[1], "✓"))
	assert.True(t, strings.HasPrefix(got[2], "◐"))
}

func TestCourseScreen_EnterOpensLesson(t *testing.T) {
	deps, c := setup(t)
	s := New(deps, c)
	loadScreen(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok, "expected a push")
	assert.Equal(t, "Introduction", push.Screen.Title())
}

func TestCourseScreen_ResumeReloadsProgress(t *testing.T) {
	deps, c := setup(t)
	s := New(deps, c)
	loadScreen(t, s)
	assert.Equal(t, "Start the course", labels(s)[0])

	require.NoError(t, deps.Store.UpdateLessonProgress(t.Context(), store.ProgressInput{
		UserID: "u1", LessonID: "l-intro", LastPosition: 30, CompletionPercentage: 25,
	}))
	s.Update(s.Resume()())
	assert.Equal(t, "Continue: Introduction", labels(s)[0])
}
