package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// RecordAttempt appends a quiz attempt. Skipped attempts carry neither an
// answer nor a correctness verdict.
func (s *Store) RecordAttempt(ctx context.Context, in AttemptInput) (AttemptResult, error) {
	if in.UserID == "" || in.LessonID == "" || in.QuestionID == "" {
		return AttemptResult{}, fmt.Errorf("record attempt: user, lesson and question are required")
	}
	if in.IsSkipped {
		in.Answer, in.IsCorrect = nil, nil
	}

	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return AttemptResult{}, fmt.Errorf("next sequence: %w", err)
	}

	ts := now()
	var answer, correct any
	if in.Answer != nil {
		answer = *in.Answer
	}
	if in.IsCorrect != nil {
		correct = *in.IsCorrect
	}

	res, err := exec(ctx, s.db, builder().Insert(tableAttempts).
		Columns("sequence", "timestamp", "user_id", "lesson_id", "assessment_type",
			"question_id", "answer", "is_correct", "is_skipped", "feedback").
		Values(seqNum, ts, in.UserID, in.LessonID, in.AssessmentType,
			in.QuestionID, answer, correct, in.IsSkipped, in.Feedback))
	if err != nil {
		return AttemptResult{}, fmt.Errorf("save quiz attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return AttemptResult{}, fmt.Errorf("attempt id: %w", err)
	}

	return AttemptResult{AttemptInput: in, ID: int(id), Sequence: seqNum, Timestamp: ts}, nil
}

// ListAttempts returns the user's attempts for a lesson in sequence order.
func (s *Store) ListAttempts(ctx context.Context, userID, lessonID string) ([]AttemptResult, error) {
	t := builder().Table(tableAttempts)
	q := builder().Select(
		t.C("id"), t.C("sequence"), t.C("timestamp"), t.C("user_id"), t.C("lesson_id"),
		t.C("assessment_type"), t.C("question_id"), t.C("answer"), t.C("is_correct"),
		t.C("is_skipped"), t.C("feedback"),
	).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("user_id"), userID),
			entsql.EQ(t.C("lesson_id"), lessonID),
		)).
		OrderBy(t.C("sequence"))

	rows, err := query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptResult
	for rows.Next() {
		var (
			a       AttemptResult
			answer  sql.NullString
			correct sql.NullBool
		)
		if err := rows.Scan(&a.ID, &a.Sequence, &a.Timestamp, &a.UserID, &a.LessonID,
			&a.AssessmentType, &a.QuestionID, &answer, &correct, &a.IsSkipped, &a.Feedback); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if answer.Valid {
			a.Answer = &answer.String
		}
		if correct.Valid {
			a.IsCorrect = &correct.Bool
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
