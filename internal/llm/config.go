package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Profiles holds generation defaults per purpose.
	Profiles map[Purpose]Profile

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds OpenAI-specific configuration. BaseURL points the
// client at any OpenAI-compatible API.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration. BaseURL is only set
// for tests and proxies.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config tuned for conversational latency: short
// timeout, two attempts.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Profiles: DefaultProfiles(),
		Timeout:  20 * time.Second,
	}
}

// ConfigFromEnv builds a Config from CLASSMATE_* variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	for env, dst := range map[string]*string{
		"CLASSMATE_LLM_PROVIDER":       &cfg.Provider,
		"CLASSMATE_ANTHROPIC_API_KEY":  &cfg.Anthropic.APIKey,
		"CLASSMATE_ANTHROPIC_MODEL":    &cfg.Anthropic.Model,
		"CLASSMATE_OPENAI_API_KEY":     &cfg.OpenAI.APIKey,
		"CLASSMATE_OPENAI_MODEL":       &cfg.OpenAI.Model,
		"CLASSMATE_OPENAI_BASE_URL":    &cfg.OpenAI.BaseURL,
		"CLASSMATE_GEMINI_API_KEY":     &cfg.Gemini.APIKey,
		"CLASSMATE_GEMINI_MODEL":       &cfg.Gemini.Model,
		"CLASSMATE_OPENROUTER_API_KEY": &cfg.OpenRouter.APIKey,
		"CLASSMATE_OPENROUTER_MODEL":   &cfg.OpenRouter.Model,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	profileModelsFromEnv(cfg.Profiles)

	if v := os.Getenv("CLASSMATE_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// DiscoverConfig probes the vendors' standard API key variables
// (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the
// first one set. Returns (Config{}, false) if none is.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	profileModelsFromEnv(cfg.Profiles)
	return cfg, true
}

// profileModelsFromEnv applies per-purpose model overrides, e.g. a cheaper
// model for grading.
func profileModelsFromEnv(profiles map[Purpose]Profile) {
	for env, purpose := range map[string]Purpose{
		"CLASSMATE_LLM_CHAT_MODEL":  PurposeTutorChat,
		"CLASSMATE_LLM_EVAL_MODEL":  PurposeEvaluation,
		"CLASSMATE_LLM_RECAP_MODEL": PurposeLessonRecap,
	} {
		if v := os.Getenv(env); v != "" {
			prof := profiles[purpose]
			prof.Model = v
			profiles[purpose] = prof
		}
	}
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("CLASSMATE_%s_API_KEY is required for the %s provider",
			strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}

func providerPinned() bool {
	return os.Getenv("CLASSMATE_LLM_PROVIDER") != ""
}
