package lesson

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/classmate/internal/actions"
)

// registerHandlers plugs the screen into every button of the action table.
// Handlers run on the click goroutine, so anything touching screen state
// is posted back to the UI goroutine.
func (s *Screen) registerHandlers() {
	request := func(msg tea.Msg) actions.Handler {
		return func(context.Context, actions.PendingAction) error {
			s.post(msg)
			return nil
		}
	}

	bindings := []struct {
		typ     actions.ActionType
		button  string
		handler actions.Handler
	}{
		{actions.CourseWelcome, actions.ButtonStartCourse, request(startWarmupMsg{})},
		{actions.CourseWelcome, actions.ButtonAskQuestion, request(focusChatMsg{})},
		{actions.CourseWelcomeBack, actions.ButtonContinue, request(playMsg{})},
		{actions.CourseWelcomeBack, actions.ButtonRecap, s.recap},
		{actions.LessonWelcome, actions.ButtonStartWarmup, request(startWarmupMsg{})},
		{actions.LessonWelcome, actions.ButtonSkipWarmup, request(playMsg{})},
		{actions.LessonWelcomeBack, actions.ButtonContinue, request(playMsg{})},
		{actions.LessonWelcomeBack, actions.ButtonRecap, s.recap},
		{actions.WarmupComplete, actions.ButtonStartLesson, request(playMsg{})},
		{actions.InlessonComplete, actions.ButtonContinue, request(playMsg{})},
		{actions.InlessonComplete, actions.ButtonAskQuestion, request(focusChatMsg{})},
		{actions.LessonComplete, actions.ButtonNextLesson, request(nextLessonMsg{})},
		{actions.LessonComplete, actions.ButtonReviewLesson, request(replayMsg{})},
	}
	for _, b := range bindings {
		s.unregister = append(s.unregister, s.handlers.Register(b.typ, b.button, b.handler))
	}
}

func (s *Screen) recap(ctx context.Context, _ actions.PendingAction) error {
	r, ok := s.tutor.(recapper)
	if !ok || !s.tutor.Connected() {
		s.post(noticeMsg{Text: "Recap needs the tutor. Press ctrl+p to resume the lesson."})
		return nil
	}
	if err := r.Recap(ctx); err != nil {
		s.post(noticeMsg{Text: "Recap failed. Press ctrl+p to resume the lesson."})
		return err
	}
	s.post(noticeMsg{Text: "Press ctrl+p when you're ready to resume."})
	return nil
}
