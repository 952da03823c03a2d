// Package inlesson runs in-lesson questions: one active question at a time,
// scored locally (multiple choice) or by the tutor (free text).
package inlesson

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
)

// DefaultFeedbackDelay lets the answer toast play before feedback scrolls in.
const DefaultFeedbackDelay = 900 * time.Millisecond

// SkipMessage is posted when the learner skips a question.
const SkipMessage = "No problem, we can come back to this one later. Let's keep going."

// ErrQuestionActive is returned by Begin while another question is unanswered.
var ErrQuestionActive = errors.New("in-lesson question already active")

// Phase is the flow's position in its lifecycle.
type Phase int

const (
	PhaseIdle     Phase = iota // No question on screen
	PhaseActive                // Waiting for an answer or skip
	PhaseFeedback              // Answer scored, feedback pending
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseFeedback:
		return "feedback"
	default:
		return "idle"
	}
}

// Recorder persists quiz attempts.
type Recorder interface {
	RecordAttempt(ctx context.Context, a session.Attempt) error
}

// Tutor is the real-time transport as seen by the flow.
type Tutor interface {
	Connected() bool
	SendText(ctx context.Context, text string) error
}

// Evaluator is implemented by tutors that score free-text answers with a
// dedicated request. The verdict arrives later as an
// InlessonEvaluationResult event.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, q quiz.InlessonQuestion, answer string) error
}

// Cues are the audio/visual reactions to an answer.
type Cues interface {
	Success()
	Error()
	Confetti()
}

type nopCues struct{}

func (nopCues) Success()  {}
func (nopCues) Error()    {}
func (nopCues) Confetti() {}

// Scheduler runs fn after d.
type Scheduler func(d time.Duration, fn func())

// AfterFunc schedules with time.AfterFunc.
func AfterFunc(d time.Duration, fn func()) { time.AfterFunc(d, fn) }

// Config wires a Flow to its collaborators. Emit is required.
type Config struct {
	Emit          func(session.Event)
	Recorder      Recorder
	Tutor         Tutor
	Cues          Cues
	Schedule      Scheduler
	FeedbackDelay time.Duration
	NewID         func() string
	Logger        *logger.Logger
}

// Flow owns the active in-lesson question. The session reducer keeps a
// projection of it that follows the events Flow emits.
type Flow struct {
	mu       sync.Mutex
	active   *session.ActiveQuestion
	question quiz.InlessonQuestion
	pending  int    // scored answers whose feedback has not been posted
	gen      uint64 // bumped by Reset to drop delayed feedback
	userID   string
	lessonID string

	emit     func(session.Event)
	recorder Recorder
	tutor    Tutor
	cues     Cues
	schedule Scheduler
	delay    time.Duration
	newID    func() string
	log      *logger.Logger
}

// New creates a Flow.
func New(cfg Config) *Flow {
	f := &Flow{
		emit:     cfg.Emit,
		recorder: cfg.Recorder,
		tutor:    cfg.Tutor,
		cues:     cfg.Cues,
		schedule: cfg.Schedule,
		delay:    cfg.FeedbackDelay,
		newID:    cfg.NewID,
		log:      cfg.Logger,
	}
	if f.emit == nil {
		f.emit = func(session.Event) {}
	}
	if f.cues == nil {
		f.cues = nopCues{}
	}
	if f.schedule == nil {
		f.schedule = AfterFunc
	}
	if f.delay <= 0 {
		f.delay = DefaultFeedbackDelay
	}
	if f.newID == nil {
		f.newID = uuid.NewString
	}
	if f.log == nil {
		f.log = logger.NewNop()
	}
	return f
}

// SetLesson sets the identity attached to recorded attempts and resets the flow.
func (f *Flow) SetLesson(userID, lessonID string) {
	f.mu.Lock()
	f.userID = userID
	f.lessonID = lessonID
	f.mu.Unlock()
	f.Reset()
}

// SetTutor swaps the transport used for text answers.
func (f *Flow) SetTutor(t Tutor) {
	f.mu.Lock()
	f.tutor = t
	f.mu.Unlock()
}

// Begin makes q the active question and announces it under messageID.
func (f *Flow) Begin(q quiz.InlessonQuestion, messageID string) error {
	f.mu.Lock()
	if f.active != nil {
		f.mu.Unlock()
		return ErrQuestionActive
	}
	f.question = q
	f.active = &session.ActiveQuestion{
		QuestionID:    q.ID,
		MessageID:     messageID,
		Type:          q.Type,
		CorrectOption: q.CorrectOption,
	}
	f.mu.Unlock()

	f.log.Debug("in-lesson question started", "question_id", q.ID, "type", q.Type)
	f.emit(session.InlessonQuestionShown{QuestionID: q.ID, MessageID: messageID, Text: q.Question})
	return nil
}

// take clears and returns the active question if it matches questionID.
func (f *Flow) take(questionID string) (quiz.InlessonQuestion, session.ActiveQuestion, bool) {
	if f.active == nil || f.active.QuestionID != questionID {
		return quiz.InlessonQuestion{}, session.ActiveQuestion{}, false
	}
	active := *f.active
	f.active = nil
	return f.question, active, true
}

// HandleAnswer scores or forwards an answer. Answers for anything but the
// active question are ignored and false is returned.
func (f *Flow) HandleAnswer(ctx context.Context, questionID, answer string) bool {
	f.mu.Lock()
	q, active, ok := f.take(questionID)
	if !ok {
		f.mu.Unlock()
		f.log.Debug("stale in-lesson answer ignored", "question_id", questionID)
		return false
	}
	user, lesson, gen := f.userID, f.lessonID, f.gen
	if q.Type != quiz.TypeText {
		f.pending++
	}
	tutor := f.tutor
	f.mu.Unlock()

	if q.Type == quiz.TypeText {
		f.forwardTextAnswer(ctx, tutor, q, answer)
		return true
	}

	correct := answer == active.CorrectOption
	if correct {
		f.cues.Success()
		f.cues.Confetti()
	} else {
		f.cues.Error()
	}
	f.emit(session.InlessonAnswered{
		QuestionID:      q.ID,
		Answer:          answer,
		AnswerMessageID: f.newID(),
		Correct:         correct,
	})

	feedback := feedbackText(q, correct)
	f.record(ctx, session.Attempt{
		UserID:         user,
		LessonID:       lesson,
		AssessmentType: session.AssessmentInlesson,
		QuestionID:     q.ID,
		Answer:         &answer,
		IsCorrect:      &correct,
		Feedback:       feedback,
	})

	f.schedule(f.delay, func() {
		f.mu.Lock()
		if f.gen != gen {
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()

		id := f.newID()
		f.emit(session.AssistantMessageAdded{MessageID: id, Text: feedback, MessageKind: session.KindFeedback, QuestionID: q.ID})
		f.emit(session.ActionShow{Type: actions.InlessonComplete, AnchorMessageID: id})

		f.mu.Lock()
		if f.gen == gen && f.pending > 0 {
			f.pending--
		}
		f.mu.Unlock()
	})
	return true
}

func (f *Flow) forwardTextAnswer(ctx context.Context, tutor Tutor, q quiz.InlessonQuestion, answer string) {
	f.emit(session.InlessonAnswered{
		QuestionID:        q.ID,
		Answer:            answer,
		AnswerMessageID:   f.newID(),
		PendingEvaluation: true,
	})

	if tutor == nil || !tutor.Connected() {
		f.log.Info("tutor offline; text answer left pending", "question_id", q.ID)
		return
	}
	var err error
	if ev, ok := tutor.(Evaluator); ok {
		err = ev.EvaluateAnswer(ctx, q, answer)
	} else {
		err = tutor.SendText(ctx, fmt.Sprintf("Question: %s\nMy answer: %s", q.Question, answer))
	}
	if err != nil {
		f.log.Warn("forward text answer failed", "question_id", q.ID, "error", err)
	}
}

// HandleSkip records a skip for the active question.
func (f *Flow) HandleSkip(ctx context.Context, questionID string) bool {
	f.mu.Lock()
	q, _, ok := f.take(questionID)
	if !ok {
		f.mu.Unlock()
		f.log.Debug("stale in-lesson skip ignored", "question_id", questionID)
		return false
	}
	user, lesson := f.userID, f.lessonID
	f.mu.Unlock()

	f.record(ctx, session.Attempt{
		UserID:         user,
		LessonID:       lesson,
		AssessmentType: session.AssessmentInlesson,
		QuestionID:     q.ID,
		IsSkipped:      true,
	})

	id := f.newID()
	f.emit(session.InlessonSkipped{QuestionID: q.ID})
	f.emit(session.AssistantMessageAdded{MessageID: id, Text: SkipMessage, MessageKind: session.KindFeedback, QuestionID: q.ID})
	f.emit(session.ActionShow{Type: actions.InlessonComplete, AnchorMessageID: id})
	return true
}

func (f *Flow) record(ctx context.Context, a session.Attempt) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.RecordAttempt(ctx, a); err != nil {
		f.log.Warn("record attempt failed", "question_id", a.QuestionID, "error", err)
	}
}

// Active returns the active question.
func (f *Flow) Active() (session.ActiveQuestion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return session.ActiveQuestion{}, false
	}
	return *f.active, true
}

// Question returns the full content of the active question.
func (f *Flow) Question() (quiz.InlessonQuestion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return quiz.InlessonQuestion{}, false
	}
	return f.question, true
}

// Phase reports where the flow is in its lifecycle.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.active != nil:
		return PhaseActive
	case f.pending > 0:
		return PhaseFeedback
	default:
		return PhaseIdle
	}
}

// Reset drops the active question and any feedback still waiting to post.
func (f *Flow) Reset() {
	f.mu.Lock()
	f.active = nil
	f.pending = 0
	f.gen++
	f.mu.Unlock()
}

func feedbackText(q quiz.InlessonQuestion, correct bool) string {
	switch {
	case q.Feedback != "" && correct:
		return "Correct! " + q.Feedback
	case q.Feedback != "":
		return fmt.Sprintf("Not quite, the answer is %s. %s", q.CorrectOption, q.Feedback)
	case correct:
		return "Correct! Nicely done."
	default:
		return fmt.Sprintf("Not quite, the answer is %s.", q.CorrectOption)
	}
}
