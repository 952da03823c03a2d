package tutor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/abhisek/classmate/internal/llm"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectLLM(t *testing.T, p llm.Provider) (*LLMTransport, recorder) {
	t.Helper()
	events := make(recorder, 16)
	tr := NewLLMTransport(p, events.sink, nil)
	tr.newID = func() string { return "msg-1" }
	require.NoError(t, tr.Connect(t.Context()))
	assert.Equal(t, session.TransportConnected{}, recv(t, events))
	return tr, events
}

func TestLLMTransportReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("  A slice is a view over an array. "), llm.MockText("Yes."))
	tr, events := connectLLM(t, mock)
	tr.SetLesson("Slices", "How slices share backing arrays.")

	require.NoError(t, tr.SendText(t.Context(), "what is a slice?"))
	assert.Equal(t, session.AgentSpeaking{Speaking: true}, recv(t, events))
	assert.Equal(t, session.TranscriptFinal{
		Role:      session.RoleAgent,
		SegmentID: "msg-1",
		MessageID: "msg-1",
		Text:      "A slice is a view over an array.",
	}, recv(t, events))
	assert.Equal(t, session.AgentSpeaking{Speaking: false}, recv(t, events))

	require.NoError(t, tr.SendText(t.Context(), "really?"))
	require.Equal(t, 2, mock.CallCount())
	second := mock.Calls[1]
	assert.Contains(t, second.System, "Current lesson: Slices")
	require.Len(t, second.Messages, 3, "history is replayed")
	assert.Equal(t, llm.RoleAssistant, second.Messages[1].Role)
	assert.Equal(t, "A slice is a view over an array.", second.Messages[1].Content)
}

func TestLLMTransportHistoryBounded(t *testing.T) {
	mock := llm.NewMockProvider()
	tr, _ := connectLLM(t, mock)
	tr.sink = func(session.Event) {}
	for range maxHistory {
		mock.AddResponse(llm.MockText("ok"))
		require.NoError(t, tr.SendText(t.Context(), "again"))
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Len(t, tr.history, maxHistory)
}

func TestLLMTransportSetLessonResetsHistory(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("hi"), llm.MockText("hello"))
	tr, _ := connectLLM(t, mock)
	tr.sink = func(session.Event) {}

	require.NoError(t, tr.SendText(t.Context(), "hey"))
	tr.SetLesson("Maps", "")
	require.NoError(t, tr.Recap(t.Context()))
	assert.Len(t, mock.Calls[1].Messages, 1)
	assert.NotContains(t, mock.Calls[1].System, "Lesson summary")
}

func TestLLMTransportEvaluateAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"correct":true,"feedback":" Exactly right. "}`)})
	tr, events := connectLLM(t, mock)

	q := quiz.InlessonQuestion{ID: "q1", Question: "Why use interfaces?", Type: quiz.TypeText, Feedback: "They decouple callers."}
	require.NoError(t, tr.EvaluateAnswer(t.Context(), q, "to decouple code"))

	assert.Equal(t, session.InlessonEvaluationResult{
		QuestionID: "q1",
		Correct:    true,
		Feedback:   "Exactly right.",
		MessageID:  "msg-1",
	}, recv(t, events))

	req := mock.Calls[0]
	require.NotNil(t, req.Schema)
	assert.Equal(t, "inlesson-answer-evaluation", req.Schema.Name)
	assert.Contains(t, req.Messages[0].Content, "to decouple code")
	assert.Contains(t, req.Messages[0].Content, "They decouple callers.")
}

func TestLLMTransportTagsPurposeAndMetersUsage(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`"Slices share arrays."`), Usage: llm.Usage{InputTokens: 30, OutputTokens: 6}},
		llm.MockResponse{Content: json.RawMessage(`"Recap: slices, len, cap."`), Usage: llm.Usage{InputTokens: 40, OutputTokens: 9}},
		llm.MockResponse{Content: json.RawMessage(`{"correct":false,"feedback":"Not quite."}`), Usage: llm.Usage{InputTokens: 20, OutputTokens: 5}},
	)
	tr, _ := connectLLM(t, mock)
	tr.sink = func(session.Event) {}

	require.NoError(t, tr.SendText(t.Context(), "slices?"))
	require.NoError(t, tr.Recap(t.Context()))
	require.NoError(t, tr.EvaluateAnswer(t.Context(), quiz.InlessonQuestion{ID: "q1"}, "x"))

	require.Equal(t, 3, mock.CallCount())
	assert.Equal(t, llm.PurposeTutorChat, mock.Calls[0].Purpose)
	assert.Equal(t, llm.PurposeLessonRecap, mock.Calls[1].Purpose)
	assert.Equal(t, llm.PurposeEvaluation, mock.Calls[2].Purpose)
	for _, c := range mock.Calls {
		assert.Zero(t, c.MaxTokens, "budgets come from purpose profiles")
	}

	u := tr.Usage()
	assert.Equal(t, 3, u.Requests)
	assert.Equal(t, 90, u.InputTokens)
	assert.Equal(t, 20, u.OutputTokens)
}

func TestLLMTransportEvaluateAnswerBadJSON(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"not an object"`)})
	tr, events := connectLLM(t, mock)

	err := tr.EvaluateAnswer(t.Context(), quiz.InlessonQuestion{ID: "q1"}, "x")
	assert.ErrorContains(t, err, "decode evaluation")
	assert.Empty(t, events)
}

func TestLLMTransportNotConnected(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("unused"))
	tr := NewLLMTransport(mock, func(session.Event) {}, nil)

	assert.ErrorIs(t, tr.SendText(t.Context(), "hello"), ErrNotConnected)
	assert.ErrorIs(t, tr.EvaluateAnswer(t.Context(), quiz.InlessonQuestion{ID: "q1"}, "x"), ErrNotConnected)
	assert.Zero(t, mock.CallCount())
}

// blockingProvider waits until its context is cancelled.
type blockingProvider struct{ started chan struct{} }

func (b blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestLLMTransportDisconnectCancelsReply(t *testing.T) {
	p := blockingProvider{started: make(chan struct{})}
	tr, events := connectLLM(t, p)

	errc := make(chan error, 1)
	go func() { errc <- tr.SendText(t.Context(), "long question") }()
	recv(t, p.started)
	assert.Equal(t, session.AgentSpeaking{Speaking: true}, recv(t, events))

	tr.Disconnect()
	assert.ErrorIs(t, recv(t, errc), context.Canceled)

	var got []session.Event
	for len(events) > 0 {
		got = append(got, <-events)
	}
	assert.Contains(t, got, session.Event(session.TransportDisconnected{Reason: "client"}))
	for _, e := range got {
		_, isFinal := e.(session.TranscriptFinal)
		assert.False(t, isFinal, "no reply after disconnect")
	}
}

func TestLLMTransportToggleMute(t *testing.T) {
	tr, events := connectLLM(t, llm.NewMockProvider())
	require.NoError(t, tr.ToggleMute(t.Context()))
	assert.Equal(t, session.MuteChanged{Muted: true}, recv(t, events))
	require.NoError(t, tr.ToggleMute(t.Context()))
	assert.Equal(t, session.MuteChanged{Muted: false}, recv(t, events))
}
