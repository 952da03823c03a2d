package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/classmate/internal/actions"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestActionBarPressesSelectedButton(t *testing.T) {
	def, ok := actions.Lookup(actions.LessonWelcome)
	require.True(t, ok)

	var pressed string
	bar := NewActionBar(def, func(id string) tea.Cmd {
		pressed = id
		return func() tea.Msg { return nil }
	})

	bar, _ = bar.Update(specialKey(tea.KeyTab))
	assert.Equal(t, 1, bar.Selected)
	bar, _ = bar.Update(specialKey(tea.KeyTab))
	assert.Equal(t, 0, bar.Selected, "selection wraps")

	bar, _ = bar.Update(specialKey(tea.KeyLeft))
	_, cmd := bar.Update(specialKey(tea.KeyEnter))
	assert.NotNil(t, cmd)
	assert.Equal(t, actions.ButtonSkipWarmup, pressed)
}

func TestActionBarDisabled(t *testing.T) {
	def, _ := actions.Lookup(actions.WarmupComplete)
	bar := NewActionBar(def, func(string) tea.Cmd {
		t.Fatal("disabled bar pressed")
		return nil
	})
	bar.Disabled = true

	_, cmd := bar.Update(specialKey(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Contains(t, bar.View(), "Start the lesson")
}

func TestMultiChoice(t *testing.T) {
	var gotID, gotOption string
	mc := NewMultiChoice("q1", "Pick one", []string{"a", "b", "c"}, func(id, opt string) tea.Cmd {
		gotID, gotOption = id, opt
		return nil
	})

	mc, _ = mc.Update(specialKey(tea.KeyDown))
	mc, _ = mc.Update(specialKey(tea.KeyDown))
	mc, _ = mc.Update(specialKey(tea.KeyDown))
	assert.Equal(t, 2, mc.Selected, "selection stops at the last option")

	mc, _ = mc.Update(specialKey(tea.KeyEnter))
	assert.Equal(t, "q1", gotID)
	assert.Equal(t, "c", gotOption)

	mc, _ = mc.Update(keyPress('1'))
	assert.Equal(t, "a", gotOption)
	assert.Equal(t, 0, mc.Selected)

	mc.Update(keyPress('9'))
	assert.Equal(t, "a", gotOption, "out of range digits are ignored")
	assert.Contains(t, mc.View(), "Pick one")
}

func TestTextInputValueTrimmed(t *testing.T) {
	in := NewTextInput("Ask", 100)
	in.Model.SetValue("  hello  ")
	assert.Equal(t, "hello", in.Value())
	in.Reset()
	assert.Empty(t, in.Value())
}
