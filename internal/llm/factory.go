package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/store"
)

// ErrNoProvider is returned by NewProviderFromEnv when no provider is
// configured and no vendor API key is set.
var ErrNoProvider = errors.New("no LLM provider configured")

// NewProvider builds the configured provider, layered as
// profiles → timeout → retry → logging → vendor client.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		p, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		p, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		p = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if events != nil {
		p = WithLogging(p, cfg.Provider, events, log)
	}
	if cfg.Provider != ProviderMock {
		p = WithRetry(p, cfg.Retry)
	}
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	if len(cfg.Profiles) > 0 {
		p = WithProfiles(p, cfg.Profiles)
	}
	return p, nil
}

// NewProviderFromEnv uses CLASSMATE_LLM_PROVIDER when set, otherwise the
// first vendor API key found in the environment.
func NewProviderFromEnv(ctx context.Context, events store.EventRepo, log *logger.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if !providerPinned() {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, ErrNoProvider
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, events, log)
}
