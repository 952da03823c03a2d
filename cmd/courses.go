package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/classmate/internal/store"
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List courses and their published lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		courses, err := e.store.Courses(ctx)
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		if len(courses) == 0 {
			fmt.Println("No courses found. Import one with: classmate import course.json")
			return nil
		}

		for _, c := range courses {
			lessons, err := e.store.PublishedLessons(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("list lessons: %w", err)
			}
			progress, err := e.store.ProgressForCourse(ctx, e.cfg.UserID, c.ID)
			if err != nil {
				return fmt.Errorf("load progress: %w", err)
			}
			status := make(map[string]string, len(progress))
			for _, p := range progress {
				status[p.LessonID] = p.Status
			}

			fmt.Printf("%s  %s\n", c.ID, c.Title)
			fmt.Println(strings.Repeat("─", 60))
			for i, l := range lessons {
				fmt.Printf("  %2d. %-36s  %-12s  %s\n", i+1, truncate(l.Title, 36), l.ID, statusLabel(status[l.ID]))
			}
			fmt.Println()
		}
		return nil
	},
}

func statusLabel(s string) string {
	switch s {
	case store.StatusCompleted:
		return "completed"
	case store.StatusInProgress:
		return "in progress"
	}
	return "-"
}
