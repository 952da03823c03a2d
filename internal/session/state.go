package session

import (
	"time"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/quiz"
)

// Default timings used when Tuning leaves them zero.
const (
	DefaultToastDuration    = 900 * time.Millisecond
	DefaultProgressInterval = 10 * time.Second
)

// Role is the speaker of a message.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// MessageKind tags what a message in the transcript represents.
type MessageKind string

const (
	KindChat             MessageKind = "chat"
	KindWelcome          MessageKind = "welcome"
	KindWarmupQuestion   MessageKind = "warmup_question"
	KindInlessonQuestion MessageKind = "inlesson_question"
	KindAnswer           MessageKind = "answer"
	KindFeedback         MessageKind = "feedback"
)

// Message is one entry in the lesson transcript.
type Message struct {
	ID         string
	Role       Role
	Kind       MessageKind
	Text       string
	SegmentID  string // set for voice transcript segments
	Partial    bool   // true until the segment's final arrives
	QuestionID string // set for question, answer and feedback messages
}

// QuestionStatus is the lifecycle of an in-lesson question in the log.
type QuestionStatus string

const (
	StatusAnswered          QuestionStatus = "answered"
	StatusSkipped           QuestionStatus = "skipped"
	StatusPendingEvaluation QuestionStatus = "pending_evaluation"
	StatusEvaluated         QuestionStatus = "evaluated"
)

// ActiveQuestion mirrors the in-lesson question the quiz flow is running.
type ActiveQuestion struct {
	QuestionID    string
	MessageID     string
	Type          quiz.QuestionType
	CorrectOption string
}

// WarmupState tracks a linear walk through the warm-up questions.
type WarmupState struct {
	IsActive           bool
	Questions          []quiz.WarmupQuestion
	CurrentIndex       int
	QuestionMessageIDs map[string]string // question id -> message id
	CorrectCount       int
	IncorrectCount     int
	SkippedCount       int
}

// Current returns the question at CurrentIndex.
func (w WarmupState) Current() (quiz.WarmupQuestion, bool) {
	if !w.IsActive || w.CurrentIndex >= len(w.Questions) {
		return quiz.WarmupQuestion{}, false
	}
	return w.Questions[w.CurrentIndex], true
}

// PlayerState tracks the video player as reported by player events.
type PlayerState struct {
	Ready             bool
	Playing           bool
	Ended             bool
	Position          float64 // seconds
	Duration          float64 // seconds
	LastSavedPosition float64
}

// CompletionPercentage is the watched share of the video, 0-100.
func (p PlayerState) CompletionPercentage() float64 {
	if p.Duration <= 0 {
		return 0
	}
	pct := p.Position / p.Duration * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Tuning holds the timings the reducer writes into effects.
type Tuning struct {
	ToastDuration    time.Duration
	ProgressInterval time.Duration
}

func (t Tuning) toastDuration() time.Duration {
	if t.ToastDuration <= 0 {
		return DefaultToastDuration
	}
	return t.ToastDuration
}

func (t Tuning) progressInterval() float64 {
	if t.ProgressInterval <= 0 {
		return DefaultProgressInterval.Seconds()
	}
	return t.ProgressInterval.Seconds()
}

// State is the lesson session state. It is only ever changed by Reduce,
// which treats every map and slice as immutable and copies before writing.
// The pending action is not part of State: actions.Controller owns it and
// the reducer drives it through ShowAction/DismissAction effects.
type State struct {
	// Identity, set by SessionStarted and LessonSelected.
	UserID      string
	CourseID    string
	LessonID    string
	SessionType actions.ActionType

	// Started is true once the first SessionStarted has been applied.
	Started bool

	// IsReturningUser is fixed by the first SessionStarted.
	IsReturningUser bool

	// WelcomeStored and WelcomeMessageID are write-once.
	WelcomeStored    bool
	WelcomeMessageID string

	// UserHasInteracted and LastUserMessageType follow every user message.
	UserHasInteracted   bool
	LastUserMessageType string

	// Dedupe sets for persisted transcript finals; cleared by SessionEnded.
	StoredSegmentIDs    map[string]bool
	StoredVoiceMessages map[string]bool

	// ActiveInlessonQuestion is never non-nil while Warmup.IsActive.
	ActiveInlessonQuestion *ActiveQuestion

	Warmup WarmupState

	// QuestionLog records the outcome of every in-lesson question asked.
	QuestionLog map[string]QuestionStatus

	ShowSuccessToast bool
	ShowErrorToast   bool
	// ToastSeq identifies the most recent toast; stale clears are ignored.
	ToastSeq uint64

	Connected       bool
	Muted           bool
	AgentSpeaking   bool
	ConnectionEpoch int

	Messages []Message

	Player PlayerState

	PanelOpen bool
	Ended     bool

	Tuning Tuning
}

// NewState returns an empty session state using tuning for timers.
func NewState(tuning Tuning) State {
	return State{Tuning: tuning, PanelOpen: true}
}

// MessageByID finds a message in the transcript.
func (s State) MessageByID(id string) (Message, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}
