package session

// Summary holds the data displayed when a lesson session ends.
type Summary struct {
	WarmupTotal      int
	WarmupCorrect    int
	WarmupIncorrect  int
	WarmupSkipped    int
	InlessonAnswered int // includes evaluated answers
	InlessonSkipped  int
	InlessonPending  int
	Completion       float64 // percent of the video watched
	VideoEnded       bool
	Messages         int
}

// WarmupAccuracy is correct answers over answered (not skipped) warm-up questions.
func (s Summary) WarmupAccuracy() float64 {
	answered := s.WarmupCorrect + s.WarmupIncorrect
	if answered == 0 {
		return 0
	}
	return float64(s.WarmupCorrect) / float64(answered)
}

// BuildSummary creates a Summary from the current session state.
func BuildSummary(state State) Summary {
	sum := Summary{
		WarmupTotal:     len(state.Warmup.Questions),
		WarmupCorrect:   state.Warmup.CorrectCount,
		WarmupIncorrect: state.Warmup.IncorrectCount,
		WarmupSkipped:   state.Warmup.SkippedCount,
		Completion:      state.Player.CompletionPercentage(),
		VideoEnded:      state.Player.Ended,
	}
	for _, status := range state.QuestionLog {
		switch status {
		case StatusAnswered, StatusEvaluated:
			sum.InlessonAnswered++
		case StatusSkipped:
			sum.InlessonSkipped++
		case StatusPendingEvaluation:
			sum.InlessonPending++
		}
	}
	for _, m := range state.Messages {
		if !m.Partial {
			sum.Messages++
		}
	}
	return sum
}
