package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// StartSession opens a lesson session row and returns it.
func (s *Store) StartSession(ctx context.Context, userID, courseID, lessonID, sessionType string) (SessionRecord, error) {
	rec := SessionRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		CourseID:    courseID,
		LessonID:    lessonID,
		SessionType: sessionType,
		StartedAt:   now(),
	}
	_, err := exec(ctx, s.db, builder().Insert(tableSessions).
		Columns("id", "user_id", "course_id", "lesson_id", "session_type", "started_at").
		Values(rec.ID, rec.UserID, rec.CourseID, rec.LessonID, rec.SessionType, rec.StartedAt))
	if err != nil {
		return rec, fmt.Errorf("save session: %w", err)
	}
	return rec, nil
}

// EndSession closes a session with its final totals. Ending an already
// ended session is a no-op.
func (s *Store) EndSession(ctx context.Context, id string, totals SessionTotals) error {
	_, err := exec(ctx, s.db, builder().Update(tableSessions).
		Set("ended_at", now()).
		Set("warmup_correct", totals.WarmupCorrect).
		Set("warmup_total", totals.WarmupTotal).
		Set("questions_answered", totals.QuestionsAnswered).
		Set("questions_skipped", totals.QuestionsSkipped).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.IsNull("ended_at"),
		)))
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// RecentSessions returns the user's sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, userID string, limit int) ([]SessionRecord, error) {
	t := builder().Table(tableSessions)
	q := builder().Select(
		t.C("id"), t.C("user_id"), t.C("course_id"), t.C("lesson_id"), t.C("session_type"),
		t.C("started_at"), t.C("ended_at"), t.C("warmup_correct"), t.C("warmup_total"),
		t.C("questions_answered"), t.C("questions_skipped"),
	).
		From(t).
		Where(entsql.EQ(t.C("user_id"), userID)).
		OrderBy(entsql.Desc(t.C("started_at")))
	if limit > 0 {
		q.Limit(limit)
	}

	rows, err := query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			r     SessionRecord
			ended sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.CourseID, &r.LessonID, &r.SessionType,
			&r.StartedAt, &ended, &r.WarmupCorrect, &r.WarmupTotal,
			&r.QuestionsAnswered, &r.QuestionsSkipped); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ended.Valid {
			ts := ended.Time
			r.EndedAt = &ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reset deletes all learner data: progress, attempts, transcripts and
// sessions. The course catalog and LLM logs are kept.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{tableProgress, tableAttempts, tableMessages, tableSessions} {
		stmt, args := builder().Delete(table).Query()
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
