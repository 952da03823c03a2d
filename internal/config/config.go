// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Tutor backends.
const (
	TutorLLM = "llm"
	TutorWS  = "ws"
)

// Config holds all application configuration.
type Config struct {
	DBPath  string // empty = store.DefaultDBPath()
	LogPath string // empty = no log output
	LogMode string // "dev" or "prod"
	UserID  string

	Tutor    string // TutorLLM or TutorWS
	TutorURL string // websocket gateway URL, required for TutorWS

	FeedbackDelay    time.Duration
	ToastDuration    time.Duration
	ProgressInterval time.Duration
}

// Load reads a .env file from the working directory (if present) and then
// configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		DBPath:           getEnv("CLASSMATE_DB", ""),
		LogPath:          getEnv("CLASSMATE_LOG", ""),
		LogMode:          getEnv("CLASSMATE_LOG_MODE", "dev"),
		UserID:           getEnv("CLASSMATE_USER", defaultUser()),
		Tutor:            strings.ToLower(getEnv("CLASSMATE_TUTOR", TutorLLM)),
		TutorURL:         getEnv("CLASSMATE_TUTOR_URL", ""),
		FeedbackDelay:    getEnvDuration("CLASSMATE_FEEDBACK_DELAY", 900*time.Millisecond),
		ToastDuration:    getEnvDuration("CLASSMATE_TOAST_DURATION", 900*time.Millisecond),
		ProgressInterval: getEnvDuration("CLASSMATE_PROGRESS_INTERVAL", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("CLASSMATE_USER cannot be empty")
	}
	switch c.Tutor {
	case TutorLLM:
	case TutorWS:
		if c.TutorURL == "" {
			return fmt.Errorf("CLASSMATE_TUTOR_URL is required when CLASSMATE_TUTOR=ws")
		}
		if !strings.HasPrefix(c.TutorURL, "ws://") && !strings.HasPrefix(c.TutorURL, "wss://") {
			return fmt.Errorf("CLASSMATE_TUTOR_URL must be a ws:// or wss:// URL")
		}
	default:
		return fmt.Errorf("unknown CLASSMATE_TUTOR %q (want %q or %q)", c.Tutor, TutorLLM, TutorWS)
	}
	if c.FeedbackDelay < 0 || c.ToastDuration <= 0 {
		return fmt.Errorf("feedback delay and toast duration must be positive")
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("CLASSMATE_PROGRESS_INTERVAL must be > 0")
	}
	return nil
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "learner"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare integers are milliseconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return fallback
}
