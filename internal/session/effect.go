package session

import (
	"time"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/quiz"
)

// EffectKind names an effect for logging.
type EffectKind string

const (
	EffectPersistMessage        EffectKind = "persist_message"
	EffectSendToAgent           EffectKind = "send_to_agent"
	EffectStoreWelcome          EffectKind = "store_welcome"
	EffectShowAction            EffectKind = "show_action"
	EffectDismissAction         EffectKind = "dismiss_action"
	EffectClickAction           EffectKind = "click_action"
	EffectResetHandledActions   EffectKind = "reset_handled_actions"
	EffectStartInlessonQuestion EffectKind = "start_inlesson_question"
	EffectShowWarmupQuestion    EffectKind = "show_warmup_question"
	EffectRecordAttempt         EffectKind = "record_attempt"
	EffectUpdateProgress        EffectKind = "update_progress"
	EffectPausePlayer           EffectKind = "pause_player"
	EffectSeekPlayer            EffectKind = "seek_player"
	EffectScheduleToastClear    EffectKind = "schedule_toast_clear"
	EffectRejectTransition      EffectKind = "reject_transition"
)

// Effect is I/O requested by Reduce. The runtime performs it and feeds any
// outcome back in as a new Event.
type Effect interface {
	Kind() EffectKind
	isEffect()
}

type effect struct{}

func (effect) isEffect() {}

// Assessment types recorded with quiz attempts.
const (
	AssessmentWarmup   = "warmup"
	AssessmentInlesson = "inlesson"
)

// Attempt is one quiz answer or skip to persist. Answer and IsCorrect are
// nil for skips; IsCorrect is nil while a text answer awaits evaluation.
type Attempt struct {
	UserID         string
	LessonID       string
	AssessmentType string
	QuestionID     string
	Answer         *string
	IsCorrect      *bool
	IsSkipped      bool
	Feedback       string
}

type PersistMessage struct {
	effect
	UserID   string
	LessonID string
	Message  Message
}

type SendToAgent struct {
	effect
	Text string
}

type StoreWelcome struct {
	effect
	MessageID string
	Text      string
}

type ShowAction struct {
	effect
	Type            actions.ActionType
	Metadata        map[string]string
	AnchorMessageID string
}

type DismissAction struct{ effect }

type ClickAction struct {
	effect
	ButtonID string
}

type ResetHandledActions struct{ effect }

type StartInlessonQuestion struct {
	effect
	Question  quiz.InlessonQuestion
	MessageID string
}

type ShowWarmupQuestion struct {
	effect
	Index    int
	Question quiz.WarmupQuestion
}

type RecordAttempt struct {
	effect
	Attempt Attempt
}

type UpdateProgress struct {
	effect
	UserID               string
	LessonID             string
	LastPosition         float64
	CompletionPercentage float64
	VideoEnded           bool
}

type PausePlayer struct{ effect }

type SeekPlayer struct {
	effect
	Position float64
}

// ScheduleToastClear asks the runtime to send ToastExpired{Seq} after After.
type ScheduleToastClear struct {
	effect
	Seq   uint64
	After time.Duration
}

// RejectTransition reports an event that left the state unchanged. Stale
// rejections are expected races (duplicates, late clicks); the rest are
// invalid transitions.
type RejectTransition struct {
	effect
	Event  EventKind
	Reason string
	Stale  bool
}

func (PersistMessage) Kind() EffectKind { return EffectPersistMessage }
func (SendToAgent) Kind() EffectKind { return EffectSendToAgent }
func (StoreWelcome) Kind() EffectKind { return EffectStoreWelcome }
func (ShowAction) Kind() EffectKind { return EffectShowAction }
func (DismissAction) Kind() EffectKind { return EffectDismissAction }
func (ClickAction) Kind() EffectKind { return EffectClickAction }
func (ResetHandledActions) Kind() EffectKind { return EffectResetHandledActions }
func (StartInlessonQuestion) Kind() EffectKind { return EffectStartInlessonQuestion }
func (ShowWarmupQuestion) Kind() EffectKind { return EffectShowWarmupQuestion }
func (RecordAttempt) Kind() EffectKind { return EffectRecordAttempt }
func (UpdateProgress) Kind() EffectKind { return EffectUpdateProgress }
func (PausePlayer) Kind() EffectKind { return EffectPausePlayer }
func (SeekPlayer) Kind() EffectKind { return EffectSeekPlayer }
func (ScheduleToastClear) Kind() EffectKind { return EffectScheduleToastClear }
func (RejectTransition) Kind() EffectKind { return EffectRejectTransition }

func reject(ev Event, reason string) []Effect {
	return []Effect{RejectTransition{Event: ev.Kind(), Reason: reason}}
}

func stale(ev Event, reason string) []Effect {
	return []Effect{RejectTransition{Event: ev.Kind(), Reason: reason, Stale: true}}
}
