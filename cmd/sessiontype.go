package cmd

import (
	"fmt"

	"github.com/abhisek/classmate/internal/sessiontype"
	"github.com/spf13/cobra"
)

var sessionTypeCmd = &cobra.Command{
	Use:   "session-type",
	Short: "Show how a session would open for the learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetString("course")
		lessonID, _ := cmd.Flags().GetString("lesson")
		if courseID == "" {
			return fmt.Errorf("--course is required")
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		r, err := sessiontype.Resolve(cmd.Context(), e.store, e.cfg.UserID, courseID, lessonID)
		if err != nil {
			return err
		}

		fmt.Printf("Session type:  %s\n", r.SessionType)
		fmt.Printf("Returning:     %v\n", r.IsReturningUser())
		fmt.Printf("Progress:      %d of %d lessons\n", r.CompletedLessons, r.TotalLessons)
		if r.LessonID != "" {
			fmt.Printf("Lesson:        %d. %s\n", r.LessonNumber, r.LessonTitle)
		}
		fmt.Printf("Greeting:      %s\n", sessiontype.Greeting(r))
		return nil
	},
}

func init() {
	sessionTypeCmd.Flags().String("course", "", "Course id")
	sessionTypeCmd.Flags().String("lesson", "", "Lesson id; empty resolves at course level")
}
