package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/store"
)

// LoggingProvider appends an llm_request event for every call, so
// `classmate llm` can show what the tutor sent and what it cost.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	log      *logger.Logger
}

// WithLogging wraps p. provider is the configured provider name recorded
// on each event. A nil log discards diagnostics.
func WithLogging(p Provider, provider string, events store.EventRepo, log *logger.Logger) Provider {
	if log == nil {
		log = logger.NewNop()
	}
	return &LoggingProvider{inner: p, provider: provider, events: events, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       req.modelFor(l.inner.ModelID(), nil),
		Purpose:     string(purpose),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	log := l.log.With("purpose", purpose, "model", ev.Model)
	if err != nil {
		ev.ErrorMessage = err.Error()
		log.Warn("llm request failed", "latency_ms", ev.LatencyMs, "error", err)
	} else {
		log.Debug("llm request", "latency_ms", ev.LatencyMs, "in", ev.InputTokens, "out", ev.OutputTokens)
	}

	// Losing an event is not worth failing the learner's request.
	if lerr := l.events.AppendLLMRequest(ctx, ev); lerr != nil {
		log.Warn("llm request event not saved", "error", lerr)
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// transcript renders the request the way `classmate llm view` shows it.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		fmt.Fprintf(&b, "[budget] max_tokens=%d temperature=%.2f\n\n", req.MaxTokens, req.Temperature)
	}
	if s := req.Schema; s != nil {
		if def, err := json.Marshal(s.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", s.Name, def)
		}
	}
	return b.String()
}
