package llm

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini", name: ProviderOpenAI}
}

func openAIReply(content, finish string, seen *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}
}

func openAIError(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "nope", "type": "error", "code": status},
		})
	}
}

func TestOpenAIProviderPlainText(t *testing.T) {
	var seen map[string]any
	p := newTestOpenAIProvider(t, openAIReply("Structs group related fields under one name.", "stop", &seen))
	resp, err := p.Generate(t.Context(), Request{
		System: "You are a patient programming tutor.",
		Messages: []Message{
			{Role: RoleUser, Content: "Why do we use structs?"},
		},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Structs group related fields under one name.", text)
	assert.Equal(t, 40, resp.Usage.InputTokens)
	assert.Equal(t, 25, resp.Usage.OutputTokens)
	assert.Equal(t, "end", resp.StopReason)

	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Nil(t, seen["response_format"], "no schema means no response format")
}

func TestOpenAIProviderStructured(t *testing.T) {
	var seen map[string]any
	p := newTestOpenAIProvider(t, openAIReply(`{"correct":false,"feedback":"Close."}`, "stop", &seen))
	resp, err := p.Generate(t.Context(), Request{
		Messages: []Message{{Role: RoleUser, Content: "grade"}},
		Schema:   evaluationSchema(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":false,"feedback":"Close."}`, string(resp.Content))

	format := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIProviderSchemaViolation(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(`{"feedback":"missing verdict"}`, "stop", nil))
	_, err := p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "grade"}}, Schema: evaluationSchema()})
	var bad *BadOutputError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "answer-evaluation", bad.Schema)
}

func TestOpenAIProviderRequestTuning(t *testing.T) {
	var seen map[string]any
	p := newTestOpenAIProvider(t, openAIReply("ok", "stop", &seen))
	_, err := p.Generate(t.Context(), Request{
		Messages:    []Message{{Role: RoleUser, Content: "recap"}},
		Model:       "gpt-4.1-mini",
		MaxTokens:   700,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", seen["model"])
	assert.EqualValues(t, 700, seen["max_completion_tokens"])
	assert.InDelta(t, 0.3, seen["temperature"], 0.001)
}

func TestOpenAIProviderErrors(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		p := newTestOpenAIProvider(t, openAIError(http.StatusTooManyRequests))
		_, err := p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
		var unavail *UnavailableError
		require.ErrorAs(t, err, &unavail)
		assert.True(t, unavail.RateLimited())
		assert.Equal(t, ProviderOpenAI, unavail.Provider)
	})
	t.Run("server error", func(t *testing.T) {
		p := newTestOpenAIProvider(t, openAIError(http.StatusBadGateway))
		_, err := p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
		var unavail *UnavailableError
		require.ErrorAs(t, err, &unavail)
		assert.Equal(t, http.StatusBadGateway, unavail.Status)
	})
}

func TestOpenAIProviderConstruction(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"})
	assert.Error(t, err)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o", BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.ModelID())
}

func TestOpenRouterAttribution(t *testing.T) {
	var header http.Header
	reply := openAIReply("ok", "stop", nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		reply(w, r)
	}))
	t.Cleanup(server.Close)

	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.5-flash"})
	assert.Error(t, err, "key required")

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "google/gemini-2.5-flash", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.5-flash", p.ModelID())

	_, err = p.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "classmate", header.Get("X-Title"))
	assert.Equal(t, "Bearer k", header.Get("Authorization"))
}
