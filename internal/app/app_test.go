package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/ui/layout"
)

type stubScreen struct {
	title  string
	back   bool
	keys   []string
	status string
}

func (s *stubScreen) Init() tea.Cmd { return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		s.keys = append(s.keys, k.String())
	}
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }
func (s *stubScreen) HandlesBack() bool    { return s.back }
func (s *stubScreen) Status() string       { return s.status }
func (s *stubScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "x", Description: "Stub"}}
}

func TestEscPopsScreen(t *testing.T) {
	m := newAppModel(&stubScreen{title: "root"})
	m.router.Push(&stubScreen{title: "child"})

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestEscForwardedToBackHandler(t *testing.T) {
	child := &stubScreen{title: "lesson", back: true}
	m := newAppModel(&stubScreen{title: "root"})
	m.router.Push(child)

	m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Equal(t, []string{"esc"}, child.keys)
	assert.Equal(t, 2, m.router.Depth())
}

func TestFooterUsesScreenHints(t *testing.T) {
	s := &stubScreen{title: "root"}
	m := newAppModel(s)
	hints := m.footerHints(s)
	require.Len(t, hints, 1)
	assert.Equal(t, "Stub", hints[0].Description)
}
