package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions, written the way ent's generated migrate package lays
// them out. The store builds queries with ent's SQL builder against these.

const (
	tableCourses      = "courses"
	tableModules      = "course_modules"
	tableLessons      = "lessons"
	tableProgress     = "lesson_progress"
	tableAttempts     = "quiz_attempts"
	tableMessages     = "messages"
	tableSessions     = "lesson_sessions"
	tableLLMEvents    = "llm_request_events"
	defaultStringSize = 2147483647 // text
)

var (
	coursesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	coursesTable = &schema.Table{
		Name:       tableCourses,
		Columns:    coursesColumns,
		PrimaryKey: []*schema.Column{coursesColumns[0]},
	}

	modulesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "published", Type: field.TypeBool, Default: true},
	}
	modulesTable = &schema.Table{
		Name:       tableModules,
		Columns:    modulesColumns,
		PrimaryKey: []*schema.Column{modulesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "course_modules_courses_modules",
			Columns:    []*schema.Column{modulesColumns[1]},
			RefColumns: []*schema.Column{coursesColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "coursemodule_course_id_position", Columns: []*schema.Column{modulesColumns[1], modulesColumns[3]}},
		},
	}

	lessonsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "published", Type: field.TypeBool, Default: true},
		{Name: "video_url", Type: field.TypeString, Default: ""},
		{Name: "duration_secs", Type: field.TypeFloat64, Default: 0},
		{Name: "summary", Type: field.TypeString, Size: defaultStringSize, Default: ""},
		{Name: "quiz", Type: field.TypeString, Size: defaultStringSize, Default: ""},
	}
	lessonsTable = &schema.Table{
		Name:       tableLessons,
		Columns:    lessonsColumns,
		PrimaryKey: []*schema.Column{lessonsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "lessons_course_modules_lessons",
			Columns:    []*schema.Column{lessonsColumns[1]},
			RefColumns: []*schema.Column{modulesColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "lesson_module_id_position", Columns: []*schema.Column{lessonsColumns[1], lessonsColumns[3]}},
		},
	}

	progressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString, Default: StatusNotStarted},
		{Name: "last_position", Type: field.TypeFloat64, Default: 0},
		{Name: "completion_percentage", Type: field.TypeFloat64, Default: 0},
		{Name: "last_accessed_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
	}
	progressTable = &schema.Table{
		Name:       tableProgress,
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
		Indexes: []*schema.Index{
			{Name: "lessonprogress_user_id_lesson_id", Unique: true, Columns: []*schema.Column{progressColumns[1], progressColumns[2]}},
		},
	}

	attemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "assessment_type", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "answer", Type: field.TypeString, Nullable: true},
		{Name: "is_correct", Type: field.TypeBool, Nullable: true},
		{Name: "is_skipped", Type: field.TypeBool, Default: false},
		{Name: "feedback", Type: field.TypeString, Size: defaultStringSize, Default: ""},
	}
	attemptsTable = &schema.Table{
		Name:       tableAttempts,
		Columns:    attemptsColumns,
		PrimaryKey: []*schema.Column{attemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizattempt_user_id_lesson_id", Columns: []*schema.Column{attemptsColumns[3], attemptsColumns[4]}},
		},
	}

	messagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "role", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "content", Type: field.TypeString, Size: defaultStringSize},
		{Name: "question_id", Type: field.TypeString, Default: ""},
	}
	messagesTable = &schema.Table{
		Name:       tableMessages,
		Columns:    messagesColumns,
		PrimaryKey: []*schema.Column{messagesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "message_user_id_lesson_id", Columns: []*schema.Column{messagesColumns[3], messagesColumns[4]}},
		},
	}

	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "session_type", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
		{Name: "warmup_correct", Type: field.TypeInt, Default: 0},
		{Name: "warmup_total", Type: field.TypeInt, Default: 0},
		{Name: "questions_answered", Type: field.TypeInt, Default: 0},
		{Name: "questions_skipped", Type: field.TypeInt, Default: 0},
	}
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "lessonsession_user_id", Columns: []*schema.Column{sessionsColumns[1]}},
		},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: defaultStringSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: defaultStringSize, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventsColumns[5]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmEventsColumns[2]}},
		},
	}

	// Tables lists every table in creation order.
	Tables = []*schema.Table{
		coursesTable,
		modulesTable,
		lessonsTable,
		progressTable,
		attemptsTable,
		messagesTable,
		sessionsTable,
		llmEventsTable,
	}
)

func init() {
	modulesTable.ForeignKeys[0].RefTable = coursesTable
	lessonsTable.ForeignKeys[0].RefTable = modulesTable
}

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
