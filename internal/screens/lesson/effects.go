package lesson

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/screens/summary"
	"github.com/abhisek/classmate/internal/session"
	"github.com/abhisek/classmate/internal/store"
	"github.com/abhisek/classmate/internal/ui/components"
)

// storeTimeout bounds each write issued on behalf of an effect.
const storeTimeout = 5 * time.Second

var newSummaryScreen = func(title string, sum session.Summary) screen.Screen {
	return summary.New(title, sum)
}

// run performs one effect. Work that may block runs in the returned
// command; controller and widget updates happen immediately.
func (s *Screen) run(eff session.Effect) tea.Cmd {
	switch e := eff.(type) {
	case session.PersistMessage:
		return s.persist(e.UserID, e.LessonID, e.Message)

	case session.SendToAgent:
		if s.tutor == nil {
			return nil
		}
		t, log, text := s.tutor, s.log, e.Text
		return func() tea.Msg {
			if err := t.SendText(context.Background(), text); err != nil {
				log.Warn("send to tutor failed", "error", err)
				return noticeMsg{Text: "Message not delivered to the tutor."}
			}
			return nil
		}

	case session.StoreWelcome:
		msg := session.Message{ID: e.MessageID, Role: session.RoleAgent, Kind: session.KindWelcome, Text: e.Text}
		save := s.persist(s.state.UserID, s.state.LessonID, msg)
		stored := session.WelcomeStored{MessageID: e.MessageID, Text: e.Text}
		return func() tea.Msg {
			save()
			return eventMsg{Event: stored}
		}

	case session.ShowAction:
		s.controller.ShowAction(e.Type, e.Metadata, e.AnchorMessageID)
		return nil

	case session.DismissAction:
		s.controller.DismissAction()
		return nil

	case session.ResetHandledActions:
		s.controller.ResetHandledActions()
		return nil

	case session.ClickAction:
		c, id := s.controller, e.ButtonID
		return func() tea.Msg {
			c.HandleButtonClick(context.Background(), id)
			return nil
		}

	case session.StartInlessonQuestion:
		return s.startInlesson(e.Question, e.MessageID)

	case session.ShowWarmupQuestion:
		mc := components.NewMultiChoice(e.Question.ID, e.Question.Question, e.Question.Options, s.answerWarmup)
		s.choice = &mc
		return s.apply(session.WarmupQuestionShown{QuestionID: e.Question.ID, MessageID: s.newID()})

	case session.RecordAttempt:
		st, log, a := s.deps.Store, s.log, e.Attempt
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if _, err := st.RecordAttempt(ctx, attemptInput(a)); err != nil {
				log.Warn("record attempt failed", "question_id", a.QuestionID, "error", err)
			}
			return nil
		}

	case session.UpdateProgress:
		st, log := s.deps.Store, s.log
		in := store.ProgressInput{
			UserID:               e.UserID,
			LessonID:             e.LessonID,
			LastPosition:         e.LastPosition,
			CompletionPercentage: e.CompletionPercentage,
			VideoEnded:           e.VideoEnded,
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := st.UpdateLessonProgress(ctx, in); err != nil {
				log.Warn("update progress failed", "error", err)
			}
			return nil
		}

	case session.PausePlayer:
		if !s.player.playing {
			return nil
		}
		s.player.pause()
		return s.apply(session.PlayerPaused{Position: s.player.position})

	case session.SeekPlayer:
		s.player.seek(e.Position)
		return nil

	case session.ScheduleToastClear:
		seq := e.Seq
		return tea.Tick(e.After, func(time.Time) tea.Msg {
			return eventMsg{Event: session.ToastExpired{Seq: seq}}
		})

	case session.RejectTransition:
		if e.Stale {
			s.log.Debug("event ignored", "event", e.Event, "reason", e.Reason)
		} else {
			s.log.Warn("invalid transition", "event", e.Event, "reason", e.Reason)
		}
		return nil
	}
	s.log.Warn("unhandled effect", "effect", eff.Kind())
	return nil
}

func (s *Screen) persist(userID, lessonID string, m session.Message) tea.Cmd {
	st, log := s.deps.Store, s.log
	rec := store.MessageRecord{
		ID:         m.ID,
		UserID:     userID,
		LessonID:   lessonID,
		Role:       string(m.Role),
		Kind:       string(m.Kind),
		Content:    m.Text,
		QuestionID: m.QuestionID,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if _, err := st.AppendMessage(ctx, rec); err != nil {
			log.Warn("persist message failed", "message_id", rec.ID, "error", err)
		}
		return nil
	}
}

// startInlesson hands the triggered question to the quiz flow. If the flow
// refuses it the question is skipped so the session does not stall.
func (s *Screen) startInlesson(q quiz.InlessonQuestion, messageID string) tea.Cmd {
	if q.Type == quiz.TypeMCQ {
		mc := components.NewMultiChoice(q.ID, q.Question, q.Options, s.answerInlesson)
		s.choice = &mc
	} else {
		s.choice = nil
		s.input.SetPlaceholder("Type your answer...")
	}

	flow, log := s.flow, s.log
	return func() tea.Msg {
		if err := flow.Begin(q, messageID); err != nil {
			log.Warn("in-lesson question refused", "question_id", q.ID, "error", err)
			return eventMsg{Event: session.InlessonSkipped{QuestionID: q.ID}}
		}
		return nil
	}
}

func (s *Screen) startRecord(sessionType string) tea.Cmd {
	st, log := s.deps.Store, s.log
	userID, courseID, lessonID := s.userID, s.course.ID, s.lesson.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		rec, err := st.StartSession(ctx, userID, courseID, lessonID, sessionType)
		if err != nil {
			log.Warn("start session record failed", "error", err)
			return nil
		}
		return sessionRecordMsg{ID: rec.ID}
	}
}

// finishRecord closes the persisted session row with the current totals.
func (s *Screen) finishRecord() tea.Cmd {
	id := s.sessionID
	if id == "" {
		return nil
	}
	s.sessionID = ""
	sum := session.BuildSummary(s.state)
	totals := store.SessionTotals{
		WarmupCorrect:     sum.WarmupCorrect,
		WarmupTotal:       sum.WarmupTotal,
		QuestionsAnswered: sum.InlessonAnswered,
		QuestionsSkipped:  sum.InlessonSkipped,
	}
	st, log := s.deps.Store, s.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := st.EndSession(ctx, id, totals); err != nil {
			log.Warn("end session record failed", "session_id", id, "error", err)
		}
		return nil
	}
}

func attemptInput(a session.Attempt) store.AttemptInput {
	return store.AttemptInput{
		UserID:         a.UserID,
		LessonID:       a.LessonID,
		AssessmentType: a.AssessmentType,
		QuestionID:     a.QuestionID,
		Answer:         a.Answer,
		IsCorrect:      a.IsCorrect,
		IsSkipped:      a.IsSkipped,
		Feedback:       a.Feedback,
	}
}

// attemptRecorder lets the quiz flow write attempts straight to the store.
type attemptRecorder struct {
	st *store.Store
}

func (r attemptRecorder) RecordAttempt(ctx context.Context, a session.Attempt) error {
	_, err := r.st.RecordAttempt(ctx, attemptInput(a))
	return err
}

// cues turns quiz flow reactions into screen messages. Toasts for right and
// wrong answers come from the reducer, so only confetti is shown here.
type cues struct {
	s *Screen
}

func (cues) Success() {}
func (cues) Error()   {}

func (c cues) Confetti() {
	c.s.post(confettiMsg{})
}
