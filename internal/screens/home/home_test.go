package home

import (
	"path/filepath"
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

const catalog = `{
  "id": "go-101",
  "title": "Go Basics",
  "modules": [
    {"id": "m1", "title": "Intro", "position": 0, "lessons": [
      {"id": "l-intro", "title": "Introduction", "position": 0},
      {"id": "l-loops", "title": "Loops", "position": 1}
    ]}
  ]
}`

func newDeps(t *testing.T, courses ...string) lesson.Deps {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "home.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	for _, c := range courses {
		doc, err := store.ParseCourse([]byte(c))
		require.NoError(t, err)
		require.NoError(t, st.ImportCourse(t.Context(), doc))
	}
	return lesson.Deps{Store: st, Config: &config.Config{UserID: "u1"}, Logger: logger.NewNop()}
}

func TestHomeScreen_EmptyCatalog(t *testing.T) {
	h := New(newDeps(t))
	h.Update(h.Init()())

	view := ansi.Strip(h.View(100, 30))
	assert.Contains(t, view, "No courses yet")
	require.Len(t, h.menu.Items, 2)
	assert.Equal(t, "History", h.menu.Items[0].Label)
}

func TestHomeScreen_CountsCompletedLessons(t *testing.T) {
	deps := newDeps(t, catalog)
	require.NoError(t, deps.Store.UpdateLessonProgress(t.Context(), store.ProgressInput{
		UserID: "u1", LessonID: "l-intro", CompletionPercentage: 100, VideoEnded: true,
	}))

	h := New(deps)
	h.Update(h.Init()())

	require.Len(t, h.rows, 1)
	assert.Equal(t, 2, h.rows[0].Lessons)
	assert.Equal(t, 1, h.rows[0].Completed)
	assert.Equal(t, "Go Basics  (1/2)", h.menu.Items[0].Label)
}

func TestHomeScreen_EnterOpensCourse(t *testing.T) {
	h := New(newDeps(t, catalog))
	h.Update(h.Init()())

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Go Basics", push.Screen.Title())
}

func TestContentWidthClamped(t *testing.T) {
	assert.Equal(t, 20, contentWidth(10))
	assert.Equal(t, 64, contentWidth(400))
}
