package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// ErrNotFound is returned when a requested course or lesson does not exist.
var ErrNotFound = errors.New("not found")

// Courses returns every course ordered by title.
func (s *Store) Courses(ctx context.Context) ([]Course, error) {
	t := builder().Table(tableCourses)
	q := builder().Select(t.C("id"), t.C("title"), t.C("description"), t.C("created_at")).
		From(t).
		OrderBy(t.C("title"))

	rows, err := query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Course returns the course with the given id, or ErrNotFound.
func (s *Store) Course(ctx context.Context, id string) (*Course, error) {
	t := builder().Table(tableCourses)
	q := builder().Select(t.C("id"), t.C("title"), t.C("description"), t.C("created_at")).
		From(t).
		Where(entsql.EQ(t.C("id"), id))

	stmt, args := q.Query()
	var c Course
	err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query course: %w", err)
	}
	return &c, nil
}

// lessonSelector selects lessons joined with their module, in published
// order: module position, then lesson position. Tables carry explicit aliases
// because Join renames an unaliased table after its columns were taken.
func lessonSelector() (*entsql.Selector, *entsql.SelectTable, *entsql.SelectTable) {
	l := builder().Table(tableLessons).As("l")
	m := builder().Table(tableModules).As("m")
	q := builder().Select(
		l.C("id"), m.C("course_id"), l.C("module_id"), m.C("position"), l.C("position"),
		l.C("title"), l.C("published"), l.C("video_url"), l.C("duration_secs"),
		l.C("summary"), l.C("quiz"),
	).
		From(l).
		Join(m).On(l.C("module_id"), m.C("id")).
		OrderBy(m.C("position"), l.C("position"))
	return q, l, m
}

func scanLesson(sc interface{ Scan(...any) error }) (Lesson, error) {
	var l Lesson
	err := sc.Scan(&l.ID, &l.CourseID, &l.ModuleID, &l.ModuleOrder, &l.Position,
		&l.Title, &l.Published, &l.VideoURL, &l.DurationSecs, &l.Summary, &l.Quiz)
	return l, err
}

// PublishedLessons returns the published lessons of published modules in the
// course, ordered by module position then lesson position.
func (s *Store) PublishedLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	q, l, m := lessonSelector()
	q.Where(entsql.And(
		entsql.EQ(m.C("course_id"), courseID),
		entsql.EQ(m.C("published"), true),
		entsql.EQ(l.C("published"), true),
	))

	rows, err := query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var out []Lesson
	for rows.Next() {
		les, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		out = append(out, les)
	}
	return out, rows.Err()
}

// Lesson returns a lesson by id regardless of its published flag.
func (s *Store) Lesson(ctx context.Context, id string) (*Lesson, error) {
	q, l, _ := lessonSelector()
	q.Where(entsql.EQ(l.C("id"), id))

	stmt, args := q.Query()
	les, err := scanLesson(s.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query lesson: %w", err)
	}
	return &les, nil
}

// ProgressForCourse returns the user's progress rows for lessons in the
// course, most recently accessed first.
func (s *Store) ProgressForCourse(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	p := builder().Table(tableProgress).As("p")
	l := builder().Table(tableLessons).As("l")
	m := builder().Table(tableModules).As("m")
	q := builder().Select(
		p.C("user_id"), p.C("lesson_id"), p.C("status"), p.C("last_position"),
		p.C("completion_percentage"), p.C("last_accessed_at"), p.C("completed_at"),
	).
		From(p).
		Join(l).On(p.C("lesson_id"), l.C("id")).
		Join(m).On(l.C("module_id"), m.C("id")).
		Where(entsql.And(
			entsql.EQ(p.C("user_id"), userID),
			entsql.EQ(m.C("course_id"), courseID),
		)).
		OrderBy(entsql.Desc(p.C("last_accessed_at")))

	rows, err := query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []LessonProgress
	for rows.Next() {
		lp, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}

func scanProgress(sc interface{ Scan(...any) error }) (LessonProgress, error) {
	var (
		lp        LessonProgress
		completed sql.NullTime
	)
	err := sc.Scan(&lp.UserID, &lp.LessonID, &lp.Status, &lp.LastPosition,
		&lp.CompletionPercentage, &lp.LastAccessedAt, &completed)
	if err != nil {
		return lp, fmt.Errorf("scan progress: %w", err)
	}
	if completed.Valid {
		ts := completed.Time
		lp.CompletedAt = &ts
	}
	return lp, nil
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }
