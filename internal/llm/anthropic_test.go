package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}
}

func anthropicReply(text, stop string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
		})
	}
}

func anthropicError(status int, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": kind, "message": kind},
		})
	}
}

func TestAnthropicProviderPlainText(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply("Structs group related fields under one name.", "end_turn"))
	resp, err := p.Generate(t.Context(), Request{
		System:    "You are a patient programming tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "Why do we use structs?"}},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Structs group related fields under one name.", text)
	assert.Equal(t, 50, resp.Usage.InputTokens)
	assert.Equal(t, 80, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)
}

func TestAnthropicProviderStructured(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply(`{"correct":true,"feedback":"Spot on."}`, "end_turn"))
	resp, err := p.Generate(t.Context(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "grade"}},
		Schema:    evaluationSchema(),
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":true,"feedback":"Spot on."}`, string(resp.Content))
}

func TestAnthropicProviderTruncatedStructured(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply(`{"correct":tr`, "max_tokens"))
	_, err := p.Generate(t.Context(), Request{
		Messages: []Message{{Role: RoleUser, Content: "grade"}}, Schema: evaluationSchema(), MaxTokens: 4,
	})
	var truncated *TruncatedError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, 4, truncated.MaxTokens)
}

func TestAnthropicProviderModelOverride(t *testing.T) {
	var sent struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
	}
	reply := anthropicReply("ok", "end_turn")
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		reply(w, r)
	})

	_, err := p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "grade"}}, Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", sent.Model)
	assert.Equal(t, fallbackMaxTokens, sent.MaxTokens, "unset budget falls back")
}

func TestAnthropicProviderErrors(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "3")
			anthropicError(http.StatusTooManyRequests, "rate_limit_error")(w, r)
		})
		_, err := p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}, MaxTokens: 10})
		var unavail *UnavailableError
		require.ErrorAs(t, err, &unavail)
		assert.True(t, unavail.RateLimited())
		assert.Equal(t, 3*time.Second, unavail.RetryAfter)
		assert.Equal(t, ProviderAnthropic, unavail.Provider)
	})
	t.Run("server error", func(t *testing.T) {
		p := newTestAnthropicProvider(t, anthropicError(http.StatusInternalServerError, "api_error"))
		_, err := p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}, MaxTokens: 10})
		var unavail *UnavailableError
		require.ErrorAs(t, err, &unavail)
		assert.False(t, unavail.RateLimited())
		assert.Equal(t, http.StatusInternalServerError, unavail.Status)
	})
}

func TestAnthropicProviderRequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"})
	assert.Error(t, err)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", p.ModelID())
}
