package sessiontype

import (
	"fmt"

	"github.com/abhisek/classmate/internal/actions"
)

// Greeting renders the tutor's opening line for a resolution.
func Greeting(r Resolution) string {
	switch r.SessionType {
	case actions.CourseWelcome:
		return fmt.Sprintf("Welcome to %s! I'm your tutor for this course. Ready to get started?", r.CourseTitle)

	case actions.CourseWelcomeBack:
		msg := fmt.Sprintf("Welcome back to %s! You've completed %d of %d lessons.",
			r.CourseTitle, r.CompletedLessons, r.TotalLessons)
		if r.LastAccessedTitle != "" {
			msg += fmt.Sprintf(" Last time you were on %q.", r.LastAccessedTitle)
		}
		return msg + " Want to pick up where you left off or recap?"

	case actions.LessonWelcome:
		msg := fmt.Sprintf("Let's start lesson %d: %s.", r.LessonNumber, r.LessonTitle)
		if r.PreviousLessonTitle != "" {
			msg += fmt.Sprintf(" It builds on %q.", r.PreviousLessonTitle)
		}
		return msg + " Want a quick warm-up first?"

	case actions.LessonWelcomeBack:
		return fmt.Sprintf("Welcome back to %s. Resume where you stopped, or want a quick recap?", r.LessonTitle)
	}
	return ""
}
