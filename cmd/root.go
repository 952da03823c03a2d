package cmd

import (
	"fmt"

	"github.com/abhisek/classmate/internal/config"
	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "classmate",
	Short: "Terminal lessons with an AI tutor",
	Long:  "Classmate: watch lessons, answer warm-up and in-lesson questions, and talk to an AI tutor from your terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CLASSMATE_DB env var)")
	rootCmd.PersistentFlags().String("log", "", "Write logs to this file (overrides CLASSMATE_LOG env var)")
	rootCmd.PersistentFlags().String("user", "", "Learner id (overrides CLASSMATE_USER env var)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(sessionTypeCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is what every subcommand needs: configuration, a logger and the store.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	store *store.Store
}

func (e *env) Close() {
	e.store.Close()
	e.log.Sync()
}

// openEnv loads configuration, applies flag overrides, and opens the store.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.UserID = u
	}
	if p, _ := cmd.Flags().GetString("log"); p != "" {
		cfg.LogPath = p
	}

	log := logger.NewNop()
	if cfg.LogPath != "" {
		if log, err = logger.New(cfg.LogMode, cfg.LogPath); err != nil {
			return nil, fmt.Errorf("open log: %w", err)
		}
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "path", dbPath, "user_id", cfg.UserID)
	return &env{cfg: cfg, log: log, store: st}, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
