package session

import (
	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/quiz"
)

// Warm-up and in-lesson questions never run at the same time: a warm-up
// cannot start while an in-lesson question is active, and in-lesson triggers
// are rejected during a warm-up.

func reduceWarmupStart(s State, e WarmupStart) (State, []Effect) {
	if s.ActiveInlessonQuestion != nil {
		return s, reject(e, "in-lesson question active")
	}
	if s.Warmup.IsActive {
		return s, stale(e, "warm-up already active")
	}
	if len(e.Questions) == 0 {
		return s, stale(e, "no warm-up questions")
	}

	qs := make([]quiz.WarmupQuestion, len(e.Questions))
	copy(qs, e.Questions)
	s.Warmup = WarmupState{
		IsActive:           true,
		Questions:          qs,
		QuestionMessageIDs: map[string]string{},
	}
	return s, []Effect{ShowWarmupQuestion{Index: 0, Question: qs[0]}}
}

func reduceWarmupShown(s State, e WarmupQuestionShown) (State, []Effect) {
	q, ok := s.Warmup.Current()
	if !ok || q.ID != e.QuestionID {
		return s, stale(e, "not the current warm-up question")
	}
	if _, shown := s.Warmup.QuestionMessageIDs[q.ID]; shown {
		return s, stale(e, "warm-up question already shown")
	}

	s.Warmup.QuestionMessageIDs = withKey(s.Warmup.QuestionMessageIDs, q.ID, e.MessageID)
	msg := Message{ID: e.MessageID, Role: RoleAgent, Kind: KindWarmupQuestion, Text: q.Question, QuestionID: q.ID}
	s.Messages = appendMessage(s.Messages, msg)
	return s, []Effect{s.persist(msg)}
}

func reduceWarmupAnswered(s State, e WarmupAnswered) (State, []Effect) {
	q, ok := s.Warmup.Current()
	if !ok || q.ID != e.QuestionID {
		return s, stale(e, "not the current warm-up question")
	}

	correct := q.Correct(e.Answer)
	if correct {
		s.Warmup.CorrectCount++
	} else {
		s.Warmup.IncorrectCount++
	}

	var effects []Effect
	if e.MessageID != "" {
		msg := Message{ID: e.MessageID, Role: RoleUser, Kind: KindAnswer, Text: e.Answer, QuestionID: q.ID}
		s.Messages = appendMessage(s.Messages, msg)
		effects = append(effects, s.persist(msg))
	}

	kind := ToastError
	if correct {
		kind = ToastSuccess
	}
	s, toast := raiseToast(s, kind)
	answer := e.Answer
	effects = append(effects, toast, RecordAttempt{Attempt: Attempt{
		UserID:         s.UserID,
		LessonID:       s.LessonID,
		AssessmentType: AssessmentWarmup,
		QuestionID:     q.ID,
		Answer:         &answer,
		IsCorrect:      &correct,
		Feedback:       q.Feedback,
	}})

	s, next := advanceWarmup(s)
	return s, append(effects, next...)
}

func reduceWarmupSkipped(s State, e WarmupSkipped) (State, []Effect) {
	q, ok := s.Warmup.Current()
	if !ok || q.ID != e.QuestionID {
		return s, stale(e, "not the current warm-up question")
	}
	s.Warmup.SkippedCount++

	effects := []Effect{RecordAttempt{Attempt: Attempt{
		UserID:         s.UserID,
		LessonID:       s.LessonID,
		AssessmentType: AssessmentWarmup,
		QuestionID:     q.ID,
		IsSkipped:      true,
	}}}
	s, next := advanceWarmup(s)
	return s, append(effects, next...)
}

func advanceWarmup(s State) (State, []Effect) {
	s.Warmup.CurrentIndex++
	if s.Warmup.CurrentIndex < len(s.Warmup.Questions) {
		return s, []Effect{ShowWarmupQuestion{
			Index:    s.Warmup.CurrentIndex,
			Question: s.Warmup.Questions[s.Warmup.CurrentIndex],
		}}
	}
	return finishWarmup(s)
}

func finishWarmup(s State) (State, []Effect) {
	w := s.Warmup
	s.Warmup.IsActive = false

	var anchor string
	for i := min(w.CurrentIndex, len(w.Questions)-1); i >= 0; i-- {
		if id, ok := w.QuestionMessageIDs[w.Questions[i].ID]; ok {
			anchor = id
			break
		}
	}
	return s, []Effect{ShowAction{
		Type: actions.WarmupComplete,
		Metadata: map[string]string{
			"correct":   itoa(w.CorrectCount),
			"incorrect": itoa(w.IncorrectCount),
			"skipped":   itoa(w.SkippedCount),
			"total":     itoa(len(w.Questions)),
		},
		AnchorMessageID: anchor,
	}}
}

func reduceTrigger(s State, ev Event, q quiz.InlessonQuestion, messageID string) (State, []Effect) {
	if s.Warmup.IsActive {
		return s, reject(ev, "warm-up active")
	}
	if q.ID == "" || messageID == "" {
		return s, reject(ev, "question without id")
	}
	if s.ActiveInlessonQuestion != nil {
		return s, stale(ev, "another question active")
	}
	if _, asked := s.QuestionLog[q.ID]; asked {
		return s, stale(ev, "question already asked")
	}

	s.ActiveInlessonQuestion = &ActiveQuestion{
		QuestionID:    q.ID,
		MessageID:     messageID,
		Type:          q.Type,
		CorrectOption: q.CorrectOption,
	}

	var effects []Effect
	if s.Player.Playing {
		effects = append(effects, PausePlayer{})
	}
	return s, append(effects, StartInlessonQuestion{Question: q, MessageID: messageID})
}

func (s State) isActiveQuestion(id string) bool {
	return s.ActiveInlessonQuestion != nil && s.ActiveInlessonQuestion.QuestionID == id
}

func reduceInlessonShown(s State, e InlessonQuestionShown) (State, []Effect) {
	if !s.isActiveQuestion(e.QuestionID) || s.ActiveInlessonQuestion.MessageID != e.MessageID {
		return s, stale(e, "not the active question")
	}
	if _, shown := s.MessageByID(e.MessageID); shown {
		return s, stale(e, "question already shown")
	}
	msg := Message{ID: e.MessageID, Role: RoleAgent, Kind: KindInlessonQuestion, Text: e.Text, QuestionID: e.QuestionID}
	s.Messages = appendMessage(s.Messages, msg)
	return s, []Effect{s.persist(msg)}
}

func reduceInlessonAnswered(s State, e InlessonAnswered) (State, []Effect) {
	if !s.isActiveQuestion(e.QuestionID) {
		return s, stale(e, "not the active question")
	}
	s.ActiveInlessonQuestion = nil

	status := StatusAnswered
	if e.PendingEvaluation {
		status = StatusPendingEvaluation
	}
	s.QuestionLog = withKey(s.QuestionLog, e.QuestionID, status)

	var effects []Effect
	if e.AnswerMessageID != "" {
		msg := Message{ID: e.AnswerMessageID, Role: RoleUser, Kind: KindAnswer, Text: e.Answer, QuestionID: e.QuestionID}
		s.Messages = appendMessage(s.Messages, msg)
		effects = append(effects, s.persist(msg))
	}
	if !e.PendingEvaluation {
		kind := ToastError
		if e.Correct {
			kind = ToastSuccess
		}
		var toast Effect
		s, toast = raiseToast(s, kind)
		effects = append(effects, toast)
	}
	return s, effects
}

func reduceInlessonSkipped(s State, e InlessonSkipped) (State, []Effect) {
	if !s.isActiveQuestion(e.QuestionID) {
		return s, stale(e, "not the active question")
	}
	s.ActiveInlessonQuestion = nil
	s.QuestionLog = withKey(s.QuestionLog, e.QuestionID, StatusSkipped)
	return s, nil
}

// reduceEvaluation applies the tutor's verdict on a text answer. Only
// questions still pending evaluation accept a result.
func reduceEvaluation(s State, e InlessonEvaluationResult) (State, []Effect) {
	if s.QuestionLog[e.QuestionID] != StatusPendingEvaluation {
		return s, stale(e, "question not pending evaluation")
	}
	s.QuestionLog = withKey(s.QuestionLog, e.QuestionID, StatusEvaluated)

	kind := ToastError
	if e.Correct {
		kind = ToastSuccess
	}
	s, toast := raiseToast(s, kind)
	effects := []Effect{toast}

	var answer *string
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Kind == KindAnswer && m.QuestionID == e.QuestionID {
			text := m.Text
			answer = &text
			break
		}
	}
	correct := e.Correct
	effects = append(effects, RecordAttempt{Attempt: Attempt{
		UserID:         s.UserID,
		LessonID:       s.LessonID,
		AssessmentType: AssessmentInlesson,
		QuestionID:     e.QuestionID,
		Answer:         answer,
		IsCorrect:      &correct,
		Feedback:       e.Feedback,
	}})

	var anchor string
	if _, dup := s.MessageByID(e.MessageID); e.MessageID != "" && e.Feedback != "" && !dup {
		msg := Message{ID: e.MessageID, Role: RoleAgent, Kind: KindFeedback, Text: e.Feedback, QuestionID: e.QuestionID}
		s.Messages = appendMessage(s.Messages, msg)
		effects = append(effects, s.persist(msg))
		anchor = e.MessageID
	}
	return s, append(effects, ShowAction{Type: actions.InlessonComplete, AnchorMessageID: anchor})
}
