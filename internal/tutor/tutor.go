// Package tutor connects a lesson session to the AI tutor, either a voice
// gateway over websocket or a text-only tutor backed by an LLM. Transports
// report back by pushing session events into a Sink.
package tutor

import (
	"context"
	"errors"

	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
)

// ErrNotConnected is returned when sending on a closed transport.
var ErrNotConnected = errors.New("tutor not connected")

// Sink receives events produced by a transport. It may be called from any
// goroutine and must not be called with transport locks held.
type Sink func(session.Event)

// Transport is a live connection to the tutor.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect()
	ToggleMute(ctx context.Context) error
	SendText(ctx context.Context, text string) error
	Connected() bool
}

// AnswerEvaluator scores free-text in-lesson answers. The verdict arrives
// later as an InlessonEvaluationResult event.
type AnswerEvaluator interface {
	EvaluateAnswer(ctx context.Context, q quiz.InlessonQuestion, answer string) error
}

var (
	_ Transport       = (*WSTransport)(nil)
	_ AnswerEvaluator = (*WSTransport)(nil)
	_ Transport       = (*LLMTransport)(nil)
	_ AnswerEvaluator = (*LLMTransport)(nil)
)
