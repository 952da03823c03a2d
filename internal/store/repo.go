package store

import (
	"context"
	"time"
)

// Lesson progress statuses.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// CompletionThreshold is the completion percentage at which a lesson counts
// as completed even if the video never reported its end.
const CompletionThreshold = 90.0

// Course is a published course.
type Course struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Lesson is a lesson row joined with its module's ordering.
type Lesson struct {
	ID           string
	CourseID     string
	ModuleID     string
	ModuleOrder  int
	Position     int
	Title        string
	Published    bool
	VideoURL     string
	DurationSecs float64
	Summary      string
	// Quiz is the raw quiz JSON document; see package quiz.
	Quiz string
}

// LessonProgress is one learner's progress on one lesson.
type LessonProgress struct {
	UserID               string
	LessonID             string
	Status               string
	LastPosition         float64
	CompletionPercentage float64
	LastAccessedAt       time.Time
	CompletedAt          *time.Time
}

// ProgressInput is the payload for UpdateLessonProgress.
type ProgressInput struct {
	UserID               string
	LessonID             string
	LastPosition         float64
	CompletionPercentage float64
	VideoEnded           bool
}

// AttemptInput is one graded (or skipped) quiz attempt.
type AttemptInput struct {
	UserID         string
	LessonID       string
	AssessmentType string
	QuestionID     string
	Answer         *string
	IsCorrect      *bool
	IsSkipped      bool
	Feedback       string
}

// AttemptResult is a persisted quiz attempt.
type AttemptResult struct {
	AttemptInput
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// MessageRecord is a persisted chat transcript line.
type MessageRecord struct {
	ID         string
	Sequence   int64
	Timestamp  time.Time
	UserID     string
	LessonID   string
	Role       string
	Kind       string
	Content    string
	QuestionID string
}

// SessionRecord summarizes one lesson session.
type SessionRecord struct {
	ID                string
	UserID            string
	CourseID          string
	LessonID          string
	SessionType       string
	StartedAt         time.Time
	EndedAt           *time.Time
	WarmupCorrect     int
	WarmupTotal       int
	QuestionsAnswered int
	QuestionsSkipped  int
}

// SessionTotals are the counters written when a session ends.
type SessionTotals struct {
	WarmupCorrect     int
	WarmupTotal       int
	QuestionsAnswered int
	QuestionsSkipped  int
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a persisted LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
