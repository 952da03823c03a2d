package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// AppendMessage persists a transcript line. Re-appending a message id is a
// no-op, so redelivered finals never duplicate rows.
func (s *Store) AppendMessage(ctx context.Context, m MessageRecord) (MessageRecord, error) {
	if m.ID == "" {
		return m, fmt.Errorf("append message: id is required")
	}

	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return m, fmt.Errorf("next sequence: %w", err)
	}
	m.Sequence = seqNum
	m.Timestamp = now()

	_, err = exec(ctx, s.db, builder().Insert(tableMessages).
		Columns("id", "sequence", "timestamp", "user_id", "lesson_id", "role", "kind", "content", "question_id").
		Values(m.ID, m.Sequence, m.Timestamp, m.UserID, m.LessonID, m.Role, m.Kind, m.Content, m.QuestionID).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()))
	if err != nil {
		return m, fmt.Errorf("save message: %w", err)
	}
	return m, nil
}

// ListMessages returns the lesson transcript in the order it was written.
func (s *Store) ListMessages(ctx context.Context, userID, lessonID string, opts QueryOpts) ([]MessageRecord, error) {
	t := builder().Table(tableMessages)
	q := builder().Select(
		t.C("id"), t.C("sequence"), t.C("timestamp"), t.C("user_id"), t.C("lesson_id"),
		t.C("role"), t.C("kind"), t.C("content"), t.C("question_id"),
	).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("user_id"), userID),
			entsql.EQ(t.C("lesson_id"), lessonID),
		)).
		OrderBy(t.C("sequence"))
	applyOpts(q, t, opts)

	rows, err := query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		if err := rows.Scan(&m.ID, &m.Sequence, &m.Timestamp, &m.UserID, &m.LessonID,
			&m.Role, &m.Kind, &m.Content, &m.QuestionID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMessages reports how many transcript lines the user has in a course.
func (s *Store) CountMessages(ctx context.Context, userID string, lessonIDs ...string) (int, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	t := builder().Table(tableMessages)
	ids := make([]any, len(lessonIDs))
	for i, id := range lessonIDs {
		ids[i] = id
	}
	stmt, args := builder().Select(entsql.Count("*")).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("user_id"), userID),
			entsql.In(t.C("lesson_id"), ids...),
		)).
		Query()

	var n int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// applyOpts adds sequence, time window and limit filters to a selector.
func applyOpts(q *entsql.Selector, t *entsql.SelectTable, opts QueryOpts) {
	if opts.After > 0 {
		q.Where(entsql.GT(t.C("sequence"), opts.After))
	}
	if opts.Before > 0 {
		q.Where(entsql.LT(t.C("sequence"), opts.Before))
	}
	if !opts.From.IsZero() {
		q.Where(entsql.GTE(t.C("timestamp"), opts.From))
	}
	if !opts.To.IsZero() {
		q.Where(entsql.LTE(t.C("timestamp"), opts.To))
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}
}
