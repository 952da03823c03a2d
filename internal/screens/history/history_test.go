package history

import (
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/store"
)

const testCourse = `{
  "id": "go-101",
  "title": "Go Basics",
  "modules": [
    {"id": "m1", "title": "Intro", "position": 0, "lessons": [
      {"id": "l-loops", "title": "Loops", "position": 0}
    ]}
  ]
}`

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	doc, err := store.ParseCourse([]byte(testCourse))
	require.NoError(t, err)
	require.NoError(t, st.ImportCourse(t.Context(), doc))
	return st
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := New(openStore(t), "u1")
	s.Update(s.Init()())

	assert.Contains(t, ansi.Strip(s.View(100, 30)), "No sessions yet")
}

func TestHistoryScreen_ListsSessions(t *testing.T) {
	st := openStore(t)
	ctx := t.Context()

	ended, err := st.StartSession(ctx, "u1", "go-101", "l-loops", "lesson_welcome")
	require.NoError(t, err)
	require.NoError(t, st.EndSession(ctx, ended.ID, store.SessionTotals{
		WarmupCorrect: 1, WarmupTotal: 2, QuestionsAnswered: 3, QuestionsSkipped: 1,
	}))
	_, err = st.StartSession(ctx, "u1", "go-101", "", "course_welcome")
	require.NoError(t, err)
	_, err = st.StartSession(ctx, "someone-else", "go-101", "l-loops", "lesson_welcome")
	require.NoError(t, err)

	s := New(st, "u1")
	s.Update(s.Init()())
	require.Len(t, s.sessions, 2)

	view := ansi.Strip(s.View(120, 40))
	assert.Contains(t, view, "Loops")
	assert.Contains(t, view, "Course introduction")
}

func TestHistoryScreen_ExpandShowsTotals(t *testing.T) {
	st := openStore(t)
	ctx := t.Context()
	rec, err := st.StartSession(ctx, "u1", "go-101", "l-loops", "lesson_welcome_back")
	require.NoError(t, err)
	require.NoError(t, st.EndSession(ctx, rec.ID, store.SessionTotals{
		WarmupCorrect: 1, WarmupTotal: 2, QuestionsAnswered: 3, QuestionsSkipped: 1,
	}))

	s := New(st, "u1")
	s.Update(s.Init()())
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	view := ansi.Strip(s.View(120, 40))
	assert.Contains(t, view, "Started as lesson welcome back")
	assert.Contains(t, view, "Warm-up 1 of 2 correct")
	assert.Contains(t, view, "3 questions answered, 1 skipped")
}

func TestHistoryScreen_EscPops(t *testing.T) {
	s := New(openStore(t), "u1")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}
