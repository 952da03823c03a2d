// Package actions implements the prompt-with-buttons overlays shown after
// session milestones: the static action table, the handler registry that
// feature code plugs into, and the controller that owns the pending action.
package actions

// ActionType identifies an action overlay.
type ActionType string

const (
	CourseWelcome     ActionType = "course_welcome"
	CourseWelcomeBack ActionType = "course_welcome_back"
	LessonWelcome     ActionType = "lesson_welcome"
	LessonWelcomeBack ActionType = "lesson_welcome_back"
	WarmupComplete    ActionType = "warmup_complete"
	InlessonComplete  ActionType = "inlesson_complete"
	LessonComplete    ActionType = "lesson_complete"
)

// Button variants map to the theme's button styles.
const (
	VariantPrimary   = "primary"
	VariantSecondary = "secondary"
)

// Button IDs shared between the table below and handler registrations.
const (
	ButtonStartCourse  = "start_course"
	ButtonContinue     = "continue"
	ButtonRecap        = "recap"
	ButtonStartWarmup  = "start_warmup"
	ButtonSkipWarmup   = "skip_warmup"
	ButtonStartLesson  = "start_lesson"
	ButtonAskQuestion  = "ask_question"
	ButtonNextLesson   = "next_lesson"
	ButtonReviewLesson = "review_lesson"
)

// Button is one choice on an action overlay.
type Button struct {
	ID      string
	Label   string
	Variant string
}

// Definition describes how an action is presented.
type Definition struct {
	Buttons []Button

	// DismissAfterClick removes the overlay once a button handler has run.
	// When false the buttons are re-enabled so the prompt can be used again.
	DismissAfterClick bool
}

var definitions = map[ActionType]Definition{
	CourseWelcome: {
		Buttons: []Button{
			{ID: ButtonStartCourse, Label: "Start the course", Variant: VariantPrimary},
			{ID: ButtonAskQuestion, Label: "I have a question", Variant: VariantSecondary},
		},
		DismissAfterClick: true,
	},
	CourseWelcomeBack: {
		Buttons: []Button{
			{ID: ButtonContinue, Label: "Continue where I left off", Variant: VariantPrimary},
			{ID: ButtonRecap, Label: "Quick recap", Variant: VariantSecondary},
		},
		DismissAfterClick: true,
	},
	LessonWelcome: {
		Buttons: []Button{
			{ID: ButtonStartWarmup, Label: "Start warm-up", Variant: VariantPrimary},
			{ID: ButtonSkipWarmup, Label: "Skip to the lesson", Variant: VariantSecondary},
		},
		DismissAfterClick: true,
	},
	LessonWelcomeBack: {
		Buttons: []Button{
			{ID: ButtonContinue, Label: "Resume lesson", Variant: VariantPrimary},
			{ID: ButtonRecap, Label: "Quick recap", Variant: VariantSecondary},
		},
		DismissAfterClick: true,
	},
	WarmupComplete: {
		Buttons: []Button{
			{ID: ButtonStartLesson, Label: "Start the lesson", Variant: VariantPrimary},
		},
		DismissAfterClick: true,
	},
	InlessonComplete: {
		Buttons: []Button{
			{ID: ButtonContinue, Label: "Continue watching", Variant: VariantPrimary},
			{ID: ButtonAskQuestion, Label: "Ask a follow-up", Variant: VariantSecondary},
		},
		DismissAfterClick: true,
	},
	LessonComplete: {
		Buttons: []Button{
			{ID: ButtonNextLesson, Label: "Next lesson", Variant: VariantPrimary},
			{ID: ButtonReviewLesson, Label: "Review this lesson", Variant: VariantSecondary},
		},
		DismissAfterClick: false,
	},
}

// Lookup returns the definition for t.
func Lookup(t ActionType) (Definition, bool) {
	def, ok := definitions[t]
	return def, ok
}

// Types returns every registered action type in presentation order.
func Types() []ActionType {
	return []ActionType{
		CourseWelcome, CourseWelcomeBack, LessonWelcome, LessonWelcomeBack,
		WarmupComplete, InlessonComplete, LessonComplete,
	}
}

// HasButton reports whether buttonID belongs to the definition.
func (d Definition) HasButton(buttonID string) bool {
	for _, b := range d.Buttons {
		if b.ID == buttonID {
			return true
		}
	}
	return false
}
