package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/classmate/internal/store"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress [lesson-id]",
	Short: "Show recent sessions, or attempts on one lesson",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, out := cmd.Context(), cmd.OutOrStdout()
		if len(args) == 1 {
			attempts, err := e.store.ListAttempts(ctx, e.cfg.UserID, args[0])
			if err != nil {
				return fmt.Errorf("query attempts: %w", err)
			}
			if len(attempts) == 0 {
				fmt.Fprintf(out, "No attempts recorded for %s.\n", args[0])
				return nil
			}
			writeAttempts(out, attempts)
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		sessions, err := e.store.RecentSessions(ctx, e.cfg.UserID, limit)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions yet.")
			return nil
		}
		writeSessions(out, sessions)
		return nil
	},
}

func writeSessions(w io.Writer, sessions []store.SessionRecord) {
	fmt.Fprintf(w, "%-19s  %-14s  %-20s  %-7s  %-9s  %s\n",
		"Started", "Lesson", "Type", "Warm-up", "Answered", "Skipped")
	fmt.Fprintln(w, strings.Repeat("─", 86))
	for _, s := range sessions {
		lessonID := s.LessonID
		if lessonID == "" {
			lessonID = "(course)"
		}
		warmup := "-"
		if s.WarmupTotal > 0 {
			warmup = fmt.Sprintf("%d/%d", s.WarmupCorrect, s.WarmupTotal)
		}
		fmt.Fprintf(w, "%-19s  %-14s  %-20s  %-7s  %-9d  %d\n",
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(lessonID, 14),
			s.SessionType,
			warmup,
			s.QuestionsAnswered,
			s.QuestionsSkipped,
		)
	}
}

// writeAttempts prints one row per attempt. Skipped attempts have no answer.
func writeAttempts(w io.Writer, attempts []store.AttemptResult) {
	fmt.Fprintf(w, "%-19s  %-8s  %-12s  %-24s  %s\n", "Time", "Type", "Question", "Answer", "Result")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, a := range attempts {
		answer := "-"
		if a.Answer != nil {
			answer = *a.Answer
		}
		result := "✗"
		switch {
		case a.IsSkipped:
			result = "skipped"
		case a.IsCorrect == nil:
			result = "pending"
		case *a.IsCorrect:
			result = "✓"
		}
		fmt.Fprintf(w, "%-19s  %-8s  %-12s  %-24s  %s\n",
			a.Timestamp.Local().Format("2006-01-02 15:04:05"),
			a.AssessmentType,
			truncate(a.QuestionID, 12),
			truncate(answer, 24),
			result,
		)
	}
}

func init() {
	progressCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
}
