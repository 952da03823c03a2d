package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/abhisek/classmate/internal/llm"
	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
	"github.com/google/uuid"
)

// maxHistory bounds the conversation replayed to the model per turn.
const maxHistory = 20

const basePrompt = `You are a friendly tutor sitting beside a learner who is watching a video lesson.
Answer in two to four short sentences of plain text. Do not use markdown.
If the learner asks about something outside the lesson, answer briefly and steer back.`

var evaluationSchema = &llm.Schema{
	Name:        "inlesson-answer-evaluation",
	Description: "Verdict on a learner's free-text answer to an in-lesson question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct":  map[string]any{"type": "boolean"},
			"feedback": map[string]any{"type": "string"},
		},
		"required":             []any{"correct", "feedback"},
		"additionalProperties": false,
	},
}

type evaluation struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// LLMTransport is a text-only tutor. Replies arrive as agent transcript
// finals, so the session treats it like a voice tutor without audio.
type LLMTransport struct {
	provider llm.Provider
	meter    *llm.UsageMeter
	sink     Sink
	log      *logger.Logger
	newID    func() string

	mu        sync.Mutex
	connected bool
	muted     bool
	lifetime  context.Context
	stop      context.CancelFunc
	lesson    string
	history   []llm.Message
}

// NewLLMTransport returns a text tutor backed by provider. Generation
// budgets come from the provider's purpose profiles.
func NewLLMTransport(provider llm.Provider, sink Sink, log *logger.Logger) *LLMTransport {
	if log == nil {
		log = logger.NewNop()
	}
	meter := llm.NewUsageMeter()
	return &LLMTransport{
		provider: llm.WithMeter(provider, meter),
		meter:    meter,
		sink:     sink,
		log:      log,
		newID:    uuid.NewString,
	}
}

// Usage is the token use of this tutor since it was created.
func (t *LLMTransport) Usage() llm.Tally {
	return t.meter.Total()
}

// SetLesson sets the lesson the tutor is talking about and forgets the
// previous conversation.
func (t *LLMTransport) SetLesson(title, summary string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lesson = fmt.Sprintf("Current lesson: %s", title)
	if summary != "" {
		t.lesson += "\nLesson summary: " + summary
	}
	t.history = nil
}

func (t *LLMTransport) Connect(context.Context) error {
	t.mu.Lock()
	if t.connected {
		t.mu.Unlock()
		return nil
	}
	t.connected = true
	t.lifetime, t.stop = context.WithCancel(context.Background())
	t.mu.Unlock()

	t.sink(session.TransportConnected{})
	return nil
}

// Disconnect cancels in-flight requests; their replies are discarded.
func (t *LLMTransport) Disconnect() {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return
	}
	t.connected = false
	t.stop()
	t.mu.Unlock()

	for purpose, u := range t.meter.ByPurpose() {
		t.log.Info("tutor usage", "purpose", purpose, "requests", u.Requests, "failures", u.Failures,
			"input_tokens", u.InputTokens, "output_tokens", u.OutputTokens, "cost_usd", u.CostUSD)
	}
	t.sink(session.TransportDisconnected{Reason: "client"})
}

func (t *LLMTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// ToggleMute has no audio to silence; it only mirrors the state so the UI
// behaves the same for both tutors.
func (t *LLMTransport) ToggleMute(context.Context) error {
	t.mu.Lock()
	t.muted = !t.muted
	muted := t.muted
	t.mu.Unlock()
	t.sink(session.MuteChanged{Muted: muted})
	return nil
}

// SendText asks the tutor and delivers the reply as a transcript final.
func (t *LLMTransport) SendText(ctx context.Context, text string) error {
	return t.ask(llm.WithPurpose(ctx, llm.PurposeTutorChat), text)
}

// Recap asks the tutor to summarize the current lesson.
func (t *LLMTransport) Recap(ctx context.Context) error {
	return t.ask(llm.WithPurpose(ctx, llm.PurposeLessonRecap),
		"Give me a quick recap of this lesson's key points before I continue.")
}

func (t *LLMTransport) ask(ctx context.Context, text string) error {
	ctx, release, err := t.bind(ctx)
	if err != nil {
		return err
	}
	defer release()

	t.mu.Lock()
	t.history = append(t.history, llm.Message{Role: llm.RoleUser, Content: text})
	req := llm.Request{
		System:   t.systemPrompt(),
		Messages: append([]llm.Message(nil), t.history...),
	}
	t.mu.Unlock()

	t.sink(session.AgentSpeaking{Speaking: true})
	defer t.sink(session.AgentSpeaking{Speaking: false})

	resp, err := t.provider.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("tutor reply: %w", err)
	}
	reply, err := resp.Text()
	if err != nil {
		return err
	}
	reply = strings.TrimSpace(reply)

	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return ErrNotConnected
	}
	t.history = append(t.history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	if n := len(t.history); n > maxHistory {
		t.history = append([]llm.Message(nil), t.history[n-maxHistory:]...)
	}
	t.mu.Unlock()

	id := t.newID()
	t.sink(session.TranscriptFinal{Role: session.RoleAgent, SegmentID: id, MessageID: id, Text: reply})
	return nil
}

// EvaluateAnswer scores a free-text answer with a structured completion.
func (t *LLMTransport) EvaluateAnswer(ctx context.Context, q quiz.InlessonQuestion, answer string) error {
	ctx, release, err := t.bind(ctx)
	if err != nil {
		return err
	}
	defer release()

	t.mu.Lock()
	system := t.systemPrompt()
	t.mu.Unlock()

	prompt := fmt.Sprintf("Question: %s\nLearner's answer: %s\n\n"+
		"Decide whether the answer is essentially correct. Give one or two sentences of feedback addressed to the learner.",
		q.Question, answer)
	if q.Feedback != "" {
		prompt += "\nReference explanation: " + q.Feedback
	}

	resp, err := t.provider.Generate(llm.WithPurpose(ctx, llm.PurposeEvaluation), llm.Request{
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:   evaluationSchema,
	})
	if err != nil {
		return fmt.Errorf("evaluate answer: %w", err)
	}

	var ev evaluation
	if err := json.Unmarshal(resp.Content, &ev); err != nil {
		return fmt.Errorf("decode evaluation: %w", err)
	}

	if !t.Connected() {
		return ErrNotConnected
	}
	t.sink(session.InlessonEvaluationResult{
		QuestionID: q.ID,
		Correct:    ev.Correct,
		Feedback:   strings.TrimSpace(ev.Feedback),
		MessageID:  t.newID(),
	})
	return nil
}

// bind ties ctx to the connection's lifetime so Disconnect cancels it.
func (t *LLMTransport) bind(ctx context.Context) (context.Context, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return nil, nil, ErrNotConnected
	}
	ctx, cancel := context.WithCancel(ctx)
	unhook := context.AfterFunc(t.lifetime, cancel)
	return ctx, func() { unhook(); cancel() }, nil
}

// systemPrompt must be called with t.mu held.
func (t *LLMTransport) systemPrompt() string {
	if t.lesson == "" {
		return basePrompt
	}
	return basePrompt + "\n\n" + t.lesson
}
