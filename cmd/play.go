package cmd

import (
	"errors"
	"fmt"

	"github.com/abhisek/classmate/internal/app"
	"github.com/abhisek/classmate/internal/screens/lesson"
	"github.com/abhisek/classmate/internal/store"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open a lesson session directly",
	Long: `Open a session without going through the catalog.

With only --course the session starts at course level and continues from the
first lesson not yet completed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetString("course")
		lessonID, _ := cmd.Flags().GetString("lesson")
		if courseID == "" && lessonID == "" {
			return errors.New("--course or --lesson is required")
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()

		var l store.Lesson
		if lessonID != "" {
			found, err := e.store.Lesson(ctx, lessonID)
			if err != nil {
				return err
			}
			if courseID != "" && found.CourseID != courseID {
				return fmt.Errorf("lesson %q is not part of course %q", lessonID, courseID)
			}
			l, courseID = *found, found.CourseID
		}

		c, err := e.store.Course(ctx, courseID)
		if err != nil {
			return err
		}

		courseLevel := lessonID == ""
		if courseLevel {
			next, err := firstIncomplete(cmd, e, courseID)
			if err != nil {
				return err
			}
			l = next
		}

		return app.RunScreen(lesson.New(lessonDeps(ctx, e), *c, l, courseLevel))
	},
}

func firstIncomplete(cmd *cobra.Command, e *env, courseID string) (store.Lesson, error) {
	ctx := cmd.Context()
	lessons, err := e.store.PublishedLessons(ctx, courseID)
	if err != nil {
		return store.Lesson{}, err
	}
	if len(lessons) == 0 {
		return store.Lesson{}, fmt.Errorf("course %q has no published lessons", courseID)
	}
	progress, err := e.store.ProgressForCourse(ctx, e.cfg.UserID, courseID)
	if err != nil {
		return store.Lesson{}, err
	}
	done := make(map[string]bool, len(progress))
	for _, p := range progress {
		done[p.LessonID] = p.Status == store.StatusCompleted
	}
	for _, l := range lessons {
		if !done[l.ID] {
			return l, nil
		}
	}
	return lessons[0], nil
}

func init() {
	playCmd.Flags().String("course", "", "Course id")
	playCmd.Flags().String("lesson", "", "Lesson id")
}
