package session

import (
	"strings"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/quiz"
)

// EventKind tags an event as "CATEGORY/NAME".
type EventKind string

// Category returns the part of the kind before the slash.
func (k EventKind) Category() string {
	cat, _, _ := strings.Cut(string(k), "/")
	return cat
}

const (
	KindTransportConnected    EventKind = "TRANSPORT/CONNECTED"
	KindTransportDisconnected EventKind = "TRANSPORT/DISCONNECTED"
	KindMuteChanged           EventKind = "TRANSPORT/MUTE_CHANGED"
	KindAgentSpeaking         EventKind = "TRANSPORT/AGENT_SPEAKING"

	KindTranscriptPartial EventKind = "TRANSCRIPT/PARTIAL"
	KindTranscriptFinal   EventKind = "TRANSCRIPT/FINAL"

	KindUserMessageSent       EventKind = "CHAT/USER_MESSAGE_SENT"
	KindAssistantMessageAdded EventKind = "CHAT/ASSISTANT_MESSAGE_ADDED"

	KindActionShow          EventKind = "ACTION/SHOW"
	KindActionDismiss       EventKind = "ACTION/DISMISS"
	KindActionButtonClicked EventKind = "ACTION/BUTTON_CLICKED"

	KindWarmupStart         EventKind = "WARMUP/START"
	KindWarmupQuestionShown EventKind = "WARMUP/QUESTION_SHOWN"
	KindWarmupAnswered      EventKind = "WARMUP/ANSWERED"
	KindWarmupSkipped       EventKind = "WARMUP/SKIPPED"
	KindWarmupComplete      EventKind = "WARMUP/COMPLETE"

	KindInlessonQuestionTriggered EventKind = "INLESSON/QUESTION_TRIGGERED"
	KindInlessonQuestionShown     EventKind = "INLESSON/QUESTION_SHOWN"
	KindInlessonAnswered          EventKind = "INLESSON/ANSWERED"
	KindInlessonSkipped           EventKind = "INLESSON/SKIPPED"
	KindInlessonEvaluationResult  EventKind = "INLESSON/EVALUATION_RESULT"

	KindPlayerReady         EventKind = "PLAYER/READY"
	KindPlayerPlaying       EventKind = "PLAYER/PLAYING"
	KindPlayerPaused        EventKind = "PLAYER/PAUSED"
	KindPlayerEnded         EventKind = "PLAYER/ENDED"
	KindPlayerSeekRequested EventKind = "PLAYER/SEEK_REQUESTED"
	KindPlayerFATrigger     EventKind = "PLAYER/FA_TRIGGER"
	KindPlayerTimeUpdate    EventKind = "PLAYER/TIME_UPDATE"

	KindSessionStarted EventKind = "SESSION/STARTED"
	KindLessonSelected EventKind = "SESSION/LESSON_SELECTED"
	KindPanelToggled   EventKind = "SESSION/PANEL_TOGGLED"
	KindWelcomeStored  EventKind = "SESSION/WELCOME_STORED"
	KindUserInteracted EventKind = "SESSION/USER_INTERACTED"
	KindToastRequested EventKind = "SESSION/TOAST_REQUESTED"
	KindToastExpired   EventKind = "SESSION/TOAST_EXPIRED"
	KindSessionEnded   EventKind = "SESSION/ENDED"
)

// Event is the closed set of inputs to Reduce. Only types in this package
// implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

type event struct{}

func (event) isEvent() {}

// ToastKind selects the success or error toast.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Transport events.

type TransportConnected struct{ event }

type TransportDisconnected struct {
	event
	Reason string
}

type MuteChanged struct {
	event
	Muted bool
}

type AgentSpeaking struct {
	event
	Speaking bool
}

// Transcript events. Partials for one SegmentID replace each other; the
// final replaces the last partial and seals the segment.

type TranscriptPartial struct {
	event
	Role      Role
	SegmentID string
	Text      string
}

type TranscriptFinal struct {
	event
	Role      Role
	SegmentID string // may be empty for transports without segments
	MessageID string // id to persist under; defaults to the segment id
	Text      string
}

// Chat events.

type UserMessageSent struct {
	event
	MessageID   string
	Text        string
	MessageType string // "text", "voice" or "button"
}

type AssistantMessageAdded struct {
	event
	MessageID   string
	Text        string
	MessageKind MessageKind // defaults to KindChat
	QuestionID  string
}

// Action events.

type ActionShow struct {
	event
	Type            actions.ActionType
	Metadata        map[string]string
	AnchorMessageID string
}

type ActionDismiss struct{ event }

type ActionButtonClicked struct {
	event
	ButtonID string
}

// Warm-up events.

type WarmupStart struct {
	event
	Questions []quiz.WarmupQuestion
}

type WarmupQuestionShown struct {
	event
	QuestionID string
	MessageID  string
}

type WarmupAnswered struct {
	event
	QuestionID string
	Answer     string
	MessageID  string // id for the learner's answer message
}

type WarmupSkipped struct {
	event
	QuestionID string
}

type WarmupComplete struct{ event }

// In-lesson events.

type InlessonQuestionTriggered struct {
	event
	Question  quiz.InlessonQuestion
	MessageID string // id for the question message
}

type InlessonQuestionShown struct {
	event
	QuestionID string
	MessageID  string
	Text       string
}

type InlessonAnswered struct {
	event
	QuestionID        string
	Answer            string
	AnswerMessageID   string
	Correct           bool
	PendingEvaluation bool // text answers sent to the tutor for scoring
}

type InlessonSkipped struct {
	event
	QuestionID string
}

type InlessonEvaluationResult struct {
	event
	QuestionID string
	Correct    bool
	Feedback   string
	MessageID  string // id for the feedback message
}

// Player events. Positions are in seconds.

type PlayerReady struct {
	event
	Duration float64
}

type PlayerPlaying struct{ event }

type PlayerPaused struct {
	event
	Position float64
}

type PlayerEnded struct {
	event
	Position float64
}

type PlayerSeekRequested struct {
	event
	Position float64
}

// PlayerFATrigger fires when playback reaches an in-lesson question.
type PlayerFATrigger struct {
	event
	Question  quiz.InlessonQuestion
	MessageID string
}

type PlayerTimeUpdate struct {
	event
	Position float64
}

// Session events.

type SessionStarted struct {
	event
	UserID           string
	CourseID         string
	LessonID         string
	IsReturningUser  bool
	SessionType      actions.ActionType
	Greeting         string
	WelcomeMessageID string
}

type LessonSelected struct {
	event
	LessonID string
}

type PanelToggled struct {
	event
	Open bool
}

type WelcomeStored struct {
	event
	MessageID string
	Text      string
}

type UserInteracted struct {
	event
	MessageType string
}

type ToastRequested struct {
	event
	Toast ToastKind
}

type ToastExpired struct {
	event
	Seq uint64
}

type SessionEnded struct{ event }

func (TransportConnected) Kind() EventKind { return KindTransportConnected }
func (TransportDisconnected) Kind() EventKind { return KindTransportDisconnected }
func (MuteChanged) Kind() EventKind { return KindMuteChanged }
func (AgentSpeaking) Kind() EventKind { return KindAgentSpeaking }
func (TranscriptPartial) Kind() EventKind { return KindTranscriptPartial }
func (TranscriptFinal) Kind() EventKind { return KindTranscriptFinal }
func (UserMessageSent) Kind() EventKind { return KindUserMessageSent }
func (AssistantMessageAdded) Kind() EventKind { return KindAssistantMessageAdded }
func (ActionShow) Kind() EventKind { return KindActionShow }
func (ActionDismiss) Kind() EventKind { return KindActionDismiss }
func (ActionButtonClicked) Kind() EventKind { return KindActionButtonClicked }
func (WarmupStart) Kind() EventKind { return KindWarmupStart }
func (WarmupQuestionShown) Kind() EventKind { return KindWarmupQuestionShown }
func (WarmupAnswered) Kind() EventKind { return KindWarmupAnswered }
func (WarmupSkipped) Kind() EventKind { return KindWarmupSkipped }
func (WarmupComplete) Kind() EventKind { return KindWarmupComplete }
func (InlessonQuestionTriggered) Kind() EventKind { return KindInlessonQuestionTriggered }
func (InlessonQuestionShown) Kind() EventKind { return KindInlessonQuestionShown }
func (InlessonAnswered) Kind() EventKind { return KindInlessonAnswered }
func (InlessonSkipped) Kind() EventKind { return KindInlessonSkipped }
func (InlessonEvaluationResult) Kind() EventKind { return KindInlessonEvaluationResult }
func (PlayerReady) Kind() EventKind { return KindPlayerReady }
func (PlayerPlaying) Kind() EventKind { return KindPlayerPlaying }
func (PlayerPaused) Kind() EventKind { return KindPlayerPaused }
func (PlayerEnded) Kind() EventKind { return KindPlayerEnded }
func (PlayerSeekRequested) Kind() EventKind { return KindPlayerSeekRequested }
func (PlayerFATrigger) Kind() EventKind { return KindPlayerFATrigger }
func (PlayerTimeUpdate) Kind() EventKind { return KindPlayerTimeUpdate }
func (SessionStarted) Kind() EventKind { return KindSessionStarted }
func (LessonSelected) Kind() EventKind { return KindLessonSelected }
func (PanelToggled) Kind() EventKind { return KindPanelToggled }
func (WelcomeStored) Kind() EventKind { return KindWelcomeStored }
func (UserInteracted) Kind() EventKind { return KindUserInteracted }
func (ToastRequested) Kind() EventKind { return KindToastRequested }
func (ToastExpired) Kind() EventKind { return KindToastExpired }
func (SessionEnded) Kind() EventKind { return KindSessionEnded }
