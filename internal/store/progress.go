package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// progressStatus applies the completion rule: a lesson is completed when the
// video ended or enough of it was watched, and a completed lesson never
// regresses.
func progressStatus(previous string, in ProgressInput) string {
	if previous == StatusCompleted || in.VideoEnded || in.CompletionPercentage >= CompletionThreshold {
		return StatusCompleted
	}
	return StatusInProgress
}

// UpdateLessonProgress upserts the (user, lesson) progress row.
func (s *Store) UpdateLessonProgress(ctx context.Context, in ProgressInput) error {
	if in.UserID == "" || in.LessonID == "" {
		return fmt.Errorf("update progress: user and lesson are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := getProgress(ctx, tx, in.UserID, in.LessonID)
	if err != nil {
		return err
	}

	ts := now()
	pct := min(max(in.CompletionPercentage, 0), 100)

	if existing == nil {
		status := progressStatus(StatusNotStarted, in)
		var completedAt any
		if status == StatusCompleted {
			completedAt = ts
		}
		stmt, args := builder().Insert(tableProgress).
			Columns("user_id", "lesson_id", "status", "last_position",
				"completion_percentage", "last_accessed_at", "completed_at").
			Values(in.UserID, in.LessonID, status, in.LastPosition, pct, ts, completedAt).
			Query()
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert progress: %w", err)
		}
		return tx.Commit()
	}

	status := progressStatus(existing.Status, in)
	upd := builder().Update(tableProgress).
		Set("status", status).
		Set("last_position", in.LastPosition).
		Set("completion_percentage", max(pct, existing.CompletionPercentage)).
		Set("last_accessed_at", ts).
		Where(entsql.And(
			entsql.EQ("user_id", in.UserID),
			entsql.EQ("lesson_id", in.LessonID),
		))
	if status == StatusCompleted && existing.CompletedAt == nil {
		upd.Set("completed_at", ts)
	}
	stmt, args := upd.Query()
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return tx.Commit()
}

// LessonProgress returns the user's progress on a lesson, or nil if the
// lesson was never opened.
func (s *Store) LessonProgress(ctx context.Context, userID, lessonID string) (*LessonProgress, error) {
	return getProgress(ctx, s.db, userID, lessonID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProgress(ctx context.Context, db queryRower, userID, lessonID string) (*LessonProgress, error) {
	t := builder().Table(tableProgress)
	stmt, args := builder().Select(
		t.C("user_id"), t.C("lesson_id"), t.C("status"), t.C("last_position"),
		t.C("completion_percentage"), t.C("last_accessed_at"), t.C("completed_at"),
	).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("user_id"), userID),
			entsql.EQ(t.C("lesson_id"), lessonID),
		)).
		Query()

	lp, err := scanProgress(db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lp, nil
}
