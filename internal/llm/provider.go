// Package llm is the provider abstraction behind the text tutor: chat
// replies, lesson recaps and free-text answer evaluation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// fallbackMaxTokens applies when neither the request nor its purpose
// profile sets a budget. Anthropic rejects a zero budget.
const fallbackMaxTokens = 1024

// Provider generates one completion per call.
type Provider interface {
	// Generate sends a prompt and returns the completion. With a Schema the
	// provider's structured output mode is used and Content is validated
	// JSON; without one Content is the reply text encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	System string

	// Messages is the conversation so far, oldest first.
	Messages []Message

	Schema *Schema

	// Model overrides the provider's model for this call. Friendly names
	// such as "claude-haiku" are resolved per provider.
	Model string

	MaxTokens int

	// Temperature in [0, 1]; zero leaves the provider default.
	Temperature float64
}

func (r Request) budget() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return fallbackMaxTokens
}

// modelFor picks the request's model override or the provider default.
func (r Request) modelFor(configured string, friendly map[string]string) string {
	if r.Model == "" {
		return configured
	}
	return resolveModel(r.Model, friendly)
}

// resolveModel maps a friendly name to a provider model ID. Unknown names
// are taken as model IDs.
func resolveModel(name string, friendly map[string]string) string {
	if id, ok := friendly[name]; ok {
		return id
	}
	return name
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON shape a structured response must take.
type Schema struct {
	// Name is a kebab-case identifier, e.g. "answer-evaluation". It also
	// keys the compiled schema cache.
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string
	// StopReason is normalized to StopEnd or StopMaxTokens.
	StopReason string
}

const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Text decodes a plain-text completion.
func (r *Response) Text() (string, error) {
	var s string
	if err := json.Unmarshal(r.Content, &s); err != nil {
		return "", fmt.Errorf("decode text response: %w", err)
	}
	return s, nil
}

// Usage is the token count of a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func usage(in, out int) Usage {
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

// finish builds the Response shared by every provider. A structured
// completion cut off by the budget is a TruncatedError; plain text is
// returned as far as it got.
func finish(req Request, text, model, stop string, u Usage) (*Response, error) {
	if req.Schema != nil && stop == StopMaxTokens {
		return nil, &TruncatedError{MaxTokens: req.budget(), Content: json.RawMessage(text)}
	}
	content, err := completionContent(req.Schema, text)
	if err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: u, Model: model, StopReason: stop}, nil
}

// completionContent turns provider text into Response.Content: validated
// JSON when a schema was requested, a JSON string otherwise.
func completionContent(schema *Schema, text string) (json.RawMessage, error) {
	if schema == nil {
		b, err := json.Marshal(text)
		if err != nil {
			return nil, &BadOutputError{Err: err}
		}
		return b, nil
	}
	raw := json.RawMessage(text)
	if err := validateResponse(schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}
