package lesson

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
	"github.com/abhisek/classmate/internal/sessiontype"
	"github.com/abhisek/classmate/internal/store"
)

// inboxMsg wraps a message posted from another goroutine.
type inboxMsg struct {
	Msg tea.Msg
}

// eventMsg carries a session event into the reducer.
type eventMsg struct {
	Event session.Event
}

// loadedMsg is sent when the lesson's content and session type are ready.
type loadedMsg struct {
	Resolution sessiontype.Resolution
	Content    *quiz.Content
	Progress   *store.LessonProgress
	Err        error
}

// sessionRecordMsg carries the id of the persisted session row.
type sessionRecordMsg struct {
	ID string
}

// lessonSwitchMsg is sent when the next lesson has been loaded.
type lessonSwitchMsg struct {
	Lesson     store.Lesson
	Content    *quiz.Content
	Resolution sessiontype.Resolution
	Progress   *store.LessonProgress
	Err        error
}

// playerTickMsg advances simulated playback by one step.
type playerTickMsg struct {
	Gen uint64
}

// Requests posted by action handlers, which run off the UI goroutine.
type (
	playMsg           struct{}
	startWarmupMsg    struct{}
	replayMsg         struct{}
	nextLessonMsg     struct{}
	focusChatMsg      struct{}
	actionsChangedMsg struct{}
)

// confettiMsg starts and confettiDoneMsg ends the celebration banner.
type confettiMsg struct{}

type confettiDoneMsg struct {
	Gen uint64
}

// noticeMsg shows a one-line status under the player.
type noticeMsg struct {
	Text string
}
