package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/abhisek/classmate/internal/app"
	"github.com/abhisek/classmate/internal/config"
	"github.com/abhisek/classmate/internal/llm"
	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/screens/lesson"
	"github.com/abhisek/classmate/internal/store"
	"github.com/abhisek/classmate/internal/tutor"
	"github.com/spf13/cobra"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	return app.Run(lessonDeps(cmd.Context(), e))
}

// lessonDeps wires the tutor backend chosen in configuration. Without a
// configured provider lessons still run, only without a tutor.
func lessonDeps(ctx context.Context, e *env) lesson.Deps {
	if ctx == nil {
		ctx = context.Background()
	}
	return lesson.Deps{
		Store:    e.store,
		Config:   e.cfg,
		Logger:   e.log,
		NewTutor: tutorFactory(ctx, e.cfg, e.store, e.log),
	}
}

func tutorFactory(ctx context.Context, cfg *config.Config, st *store.Store, log *logger.Logger) func(tutor.Sink) tutor.Transport {
	switch cfg.Tutor {
	case config.TutorWS:
		url := cfg.TutorURL
		return func(sink tutor.Sink) tutor.Transport {
			return tutor.NewWSTransport(url, sink, log.With("tutor", "ws"))
		}
	default:
		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "The tutor will be unavailable.")
			log.Warn("tutor disabled", "error", err)
			return nil
		}
		return func(sink tutor.Sink) tutor.Transport {
			return tutor.NewLLMTransport(provider, sink, log.With("tutor", "llm"))
		}
	}
}
