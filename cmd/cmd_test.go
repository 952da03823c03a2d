package cmd

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/classmate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAttemptsHandlesSkippedAnswer(t *testing.T) {
	answer := "a long answer that will not fit in the column"
	correct := true
	attempts := []store.AttemptResult{
		{
			AttemptInput: store.AttemptInput{AssessmentType: "warmup", QuestionID: "q1", IsSkipped: true},
			Timestamp:    time.Now(),
		},
		{
			AttemptInput: store.AttemptInput{AssessmentType: "inlesson", QuestionID: "q2", Answer: &answer, IsCorrect: &correct},
			Timestamp:    time.Now(),
		},
		{
			AttemptInput: store.AttemptInput{AssessmentType: "inlesson", QuestionID: "q3", Answer: &answer},
			Timestamp:    time.Now(),
		},
	}

	var buf bytes.Buffer
	require.NotPanics(t, func() { writeAttempts(&buf, attempts) })

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[2], "q1")
	assert.Contains(t, lines[2], "skipped")
	assert.Contains(t, lines[3], answer[:24])
	assert.NotContains(t, lines[3], answer)
	assert.True(t, strings.HasSuffix(lines[3], "✓"))
	assert.True(t, strings.HasSuffix(lines[4], "pending"))
}

func TestWriteSessionsCourseLevel(t *testing.T) {
	var buf bytes.Buffer
	writeSessions(&buf, []store.SessionRecord{
		{SessionType: "course_welcome", StartedAt: time.Now()},
		{LessonID: "l-structs", SessionType: "lesson_welcome", StartedAt: time.Now(), WarmupCorrect: 2, WarmupTotal: 3, QuestionsAnswered: 4},
	})
	out := buf.String()
	assert.Contains(t, out, "(course)")
	assert.Contains(t, out, "l-structs")
	assert.Contains(t, out, "2/3")
}

func TestVersionLine(t *testing.T) {
	bi := &debug.BuildInfo{
		Main:     debug.Module{Path: "github.com/abhisek/classmate", Version: "v0.3.1"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
	}

	assert.Equal(t, "classmate v1.0.0 (0123456, "+runtime.Version()+")", versionLine("v1.0.0", bi))
	assert.Equal(t, "classmate v0.3.1 (0123456, "+runtime.Version()+")", versionLine("", bi))
	assert.Equal(t, "classmate (devel) (unknown commit, "+runtime.Version()+")", versionLine("", nil))
}
