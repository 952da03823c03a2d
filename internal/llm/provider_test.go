package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/classmate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, data)
	return f.err
}

func TestMockProviderQueue(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"correct":true}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockText("Nice work!"),
	)

	resp, err := mock.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":true}`, string(resp.Content))
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, "end", resp.StopReason)

	resp, err = mock.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	require.NoError(t, err)
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Nice work!", text)

	_, err = mock.Generate(WithPurpose(t.Context(), PurposeLessonRecap), Request{})
	var unavail *UnavailableError
	assert.ErrorAs(t, err, &unavail, "exhausted script")

	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "second", mock.Calls[1].Messages[0].Content)
	assert.Equal(t, purposeUnclassified, mock.Calls[0].Purpose)
	assert.Equal(t, PurposeLessonRecap, mock.Calls[2].Purpose)
	assert.Equal(t, "mock", mock.ModelID())
}

func TestMockProviderConfiguredError(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockProvider(MockResponse{Err: boom})
	_, err := mock.Generate(t.Context(), Request{})
	assert.ErrorIs(t, err, boom)
}

func TestCompletionContent(t *testing.T) {
	raw, err := completionContent(nil, `He said "hi"`)
	require.NoError(t, err)
	assert.Equal(t, `"He said \"hi\""`, string(raw))

	raw, err = completionContent(evaluationSchema(), `{"correct":false,"feedback":"close"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":false,"feedback":"close"}`, string(raw))

	_, err = completionContent(evaluationSchema(), `not json`)
	var bad *BadOutputError
	assert.ErrorAs(t, err, &bad)
}

func TestFinishTruncation(t *testing.T) {
	resp, err := finish(Request{MaxTokens: 5}, "Structs group", "m", StopMaxTokens, usage(3, 5))
	require.NoError(t, err, "plain text keeps what arrived")
	assert.Equal(t, StopMaxTokens, resp.StopReason)
	assert.Equal(t, 8, resp.Usage.TotalTokens)

	_, err = finish(Request{MaxTokens: 5, Schema: evaluationSchema()}, `{"correct":`, "m", StopMaxTokens, Usage{})
	var truncated *TruncatedError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, 5, truncated.MaxTokens)
}

func TestResponseTextRejectsObjects(t *testing.T) {
	_, err := (&Response{Content: json.RawMessage(`{"a":1}`)}).Text()
	assert.Error(t, err)
}

func TestPurposeContext(t *testing.T) {
	assert.Equal(t, Purpose("unknown"), PurposeFrom(t.Context()))
	ctx := WithPurpose(t.Context(), PurposeEvaluation)
	assert.Equal(t, PurposeEvaluation, PurposeFrom(ctx))
}

func TestProfilesFillUnsetFields(t *testing.T) {
	mock := NewMockProvider(MockText("a"), MockText("b"), MockText("c"), MockText("d"))
	p := WithProfiles(mock, map[Purpose]Profile{
		PurposeTutorChat:  {MaxTokens: 400, Temperature: 0.4},
		PurposeEvaluation: {Model: "gpt-4o-mini", MaxTokens: 300, Temperature: 0.1},
	})

	_, err := p.Generate(WithPurpose(t.Context(), PurposeTutorChat), Request{})
	require.NoError(t, err)
	_, err = p.Generate(WithPurpose(t.Context(), PurposeEvaluation), Request{})
	require.NoError(t, err)
	_, err = p.Generate(WithPurpose(t.Context(), PurposeEvaluation), Request{Model: "gpt-4o", MaxTokens: 50, Temperature: 0.9})
	require.NoError(t, err)
	_, err = p.Generate(t.Context(), Request{})
	require.NoError(t, err)

	chat, eval, explicit, untagged := mock.Calls[0].Request, mock.Calls[1].Request, mock.Calls[2].Request, mock.Calls[3].Request
	assert.Equal(t, 400, chat.MaxTokens)
	assert.Equal(t, 0.4, chat.Temperature)
	assert.Empty(t, chat.Model)

	assert.Equal(t, "gpt-4o-mini", eval.Model)
	assert.Equal(t, 300, eval.MaxTokens)
	assert.Equal(t, 0.1, eval.Temperature)

	assert.Equal(t, Request{Model: "gpt-4o", MaxTokens: 50, Temperature: 0.9}, explicit, "explicit fields win")
	assert.Equal(t, Request{}, untagged)
}

func TestDefaultProfilesCoverEveryPurpose(t *testing.T) {
	profiles := DefaultProfiles()
	for _, p := range []Purpose{PurposeTutorChat, PurposeEvaluation, PurposeLessonRecap} {
		assert.Positive(t, profiles[p].MaxTokens, p)
	}
	assert.Less(t, profiles[PurposeEvaluation].Temperature, profiles[PurposeTutorChat].Temperature,
		"grading runs cooler than chat")
	assert.Greater(t, profiles[PurposeLessonRecap].MaxTokens, profiles[PurposeTutorChat].MaxTokens)
}

func TestUsageMeter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`"hi"`), Usage: usage(100, 20)},
		MockResponse{Content: json.RawMessage(`{"correct":true}`), Usage: usage(50, 10)},
		MockResponse{Err: errors.New("boom")},
	)
	meter := NewUsageMeter()
	p := WithMeter(mock, meter)

	_, err := p.Generate(WithPurpose(t.Context(), PurposeTutorChat), Request{})
	require.NoError(t, err)
	_, err = p.Generate(WithPurpose(t.Context(), PurposeEvaluation), Request{})
	require.NoError(t, err)
	_, err = p.Generate(WithPurpose(t.Context(), PurposeEvaluation), Request{})
	require.Error(t, err)

	by := meter.ByPurpose()
	assert.Equal(t, Tally{Requests: 1, InputTokens: 100, OutputTokens: 20, Unpriced: 1}, by[PurposeTutorChat])
	assert.Equal(t, Tally{Requests: 2, Failures: 1, InputTokens: 50, OutputTokens: 10, Unpriced: 1}, by[PurposeEvaluation])

	total := meter.Total()
	assert.Equal(t, 3, total.Requests)
	assert.Equal(t, 150, total.InputTokens)
	assert.Zero(t, total.CostUSD, "mock model has no price")
}

func TestTallyPricesKnownModels(t *testing.T) {
	var tally Tally
	tally.add(&Response{Model: "gpt-4o-mini", Usage: usage(1_000_000, 1_000_000)}, nil)
	assert.InDelta(t, 0.75, tally.CostUSD, 1e-9)
	assert.Zero(t, tally.Unpriced)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, ""},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, "CLASSMATE_ANTHROPIC_API_KEY"},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, "CLASSMATE_OPENROUTER_API_KEY"},
		{"mock needs nothing", Config{Provider: ProviderMock}, ""},
		{"unknown provider", Config{Provider: "llama"}, "unknown LLM provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CLASSMATE_LLM_PROVIDER", "openai")
	t.Setenv("CLASSMATE_OPENAI_API_KEY", "sk-test")
	t.Setenv("CLASSMATE_OPENAI_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("CLASSMATE_LLM_TIMEOUT", "3s")
	t.Setenv("CLASSMATE_LLM_EVAL_MODEL", "gpt-4.1-nano")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://localhost:1234/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "gpt-4.1-nano", cfg.Profiles[PurposeEvaluation].Model)
	assert.Equal(t, 300, cfg.Profiles[PurposeEvaluation].MaxTokens, "override keeps the budget")
	assert.Empty(t, cfg.Profiles[PurposeTutorChat].Model)
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, ProviderOpenAI, cfg.Provider, "openai outranks anthropic")
	assert.Equal(t, "o", cfg.OpenAI.APIKey)
}

func TestNewProviderFromEnv(t *testing.T) {
	for _, k := range []string{"CLASSMATE_LLM_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	_, err := NewProviderFromEnv(t.Context(), nil, nil)
	assert.ErrorIs(t, err, ErrNoProvider)

	t.Setenv("CLASSMATE_LLM_PROVIDER", "mock")
	p, err := NewProviderFromEnv(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	t.Setenv("CLASSMATE_LLM_PROVIDER", "anthropic")
	_, err = NewProviderFromEnv(t.Context(), nil, nil)
	assert.ErrorContains(t, err, "API_KEY")
}

func TestNewProviderWrapsMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter.APIKey = "sk-or-test"

	p, err := NewProvider(t.Context(), cfg, &fakeEventRepo{}, nil)
	require.NoError(t, err)
	profiles, ok := p.(*ProfileProvider)
	require.True(t, ok, "outermost layer applies purpose profiles")
	timeout, ok := profiles.inner.(*TimeoutProvider)
	require.True(t, ok)
	retry, ok := timeout.inner.(*RetryProvider)
	require.True(t, ok)
	_, ok = retry.inner.(*LoggingProvider)
	assert.True(t, ok)
	assert.Equal(t, "google/gemini-2.5-flash", p.ModelID())
}

func TestLoggingProviderRecordsEvents(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("disk full")}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"correct":true}`), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: unavailable(ProviderOpenAI, http.StatusTooManyRequests, nil, errors.New("429"))},
	)
	p := WithLogging(mock, ProviderOpenAI, repo, nil)
	ctx := WithPurpose(t.Context(), PurposeEvaluation)

	_, err := p.Generate(ctx, Request{
		System:    "Grade the answer.",
		Messages:  []Message{{Role: RoleUser, Content: "Q: why? A: because"}},
		Schema:    evaluationSchema(),
		MaxTokens: 300,
	})
	require.NoError(t, err, "event logging failures never fail the request")

	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 2)
	first := repo.events[0]
	assert.Equal(t, string(PurposeEvaluation), first.Purpose)
	assert.Equal(t, ProviderOpenAI, first.Provider)
	assert.Equal(t, "mock", first.Model)
	assert.True(t, first.Success)
	assert.Equal(t, 7, first.InputTokens)
	assert.Contains(t, first.RequestBody, "[system]\nGrade the answer.")
	assert.Contains(t, first.RequestBody, "[budget] max_tokens=300")
	assert.Contains(t, first.RequestBody, "[schema: answer-evaluation]")
	assert.JSONEq(t, `{"correct":true}`, first.ResponseBody)

	assert.False(t, repo.events[1].Success)
	assert.Contains(t, repo.events[1].ErrorMessage, "rate limited")
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestTimeoutProvider(t *testing.T) {
	p := WithTimeout(slowProvider{}, 5*time.Millisecond)
	_, err := p.Generate(t.Context(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow", p.ModelID())
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.15+0.6, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("no-such-model"))
}

func TestModelMapping(t *testing.T) {
	assert.Equal(t, "claude-haiku-4-5-20251001", resolveModel("claude-haiku", anthropicModels))
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "my-finetune", resolveModel("my-finetune", openaiModels), "unknown names pass through")
}
