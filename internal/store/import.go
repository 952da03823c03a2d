package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CourseDocument is the JSON form accepted by ImportCourse.
type CourseDocument struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Modules     []ModuleDocument `json:"modules"`
}

// ModuleDocument is one module within a CourseDocument.
type ModuleDocument struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Position  int              `json:"position"`
	Published *bool            `json:"published,omitempty"`
	Lessons   []LessonDocument `json:"lessons"`
}

// LessonDocument is one lesson within a ModuleDocument.
type LessonDocument struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Position     int             `json:"position"`
	Published    *bool           `json:"published,omitempty"`
	VideoURL     string          `json:"video_url,omitempty"`
	DurationSecs float64         `json:"duration_secs,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Quiz         json.RawMessage `json:"quiz,omitempty"`
}

var courseSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "title", "modules"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"title":       map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"modules": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "title", "position", "lessons"},
				"properties": map[string]any{
					"id":        map[string]any{"type": "string", "minLength": 1},
					"title":     map[string]any{"type": "string"},
					"position":  map[string]any{"type": "integer", "minimum": 0},
					"published": map[string]any{"type": "boolean"},
					"lessons": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []any{"id", "title", "position"},
							"properties": map[string]any{
								"id":            map[string]any{"type": "string", "minLength": 1},
								"title":         map[string]any{"type": "string"},
								"position":      map[string]any{"type": "integer", "minimum": 0},
								"published":     map[string]any{"type": "boolean"},
								"video_url":     map[string]any{"type": "string"},
								"duration_secs": map[string]any{"type": "number", "minimum": 0},
								"summary":       map[string]any{"type": "string"},
								"quiz":          map[string]any{"type": "object"},
							},
						},
					},
				},
			},
		},
	},
}

var (
	courseSchemaOnce sync.Once
	courseSchemaC    *jsonschema.Schema
	courseSchemaErr  error
)

func compiledCourseSchema() (*jsonschema.Schema, error) {
	courseSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		const url = "schema://course.json"
		if err := c.AddResource(url, courseSchema); err != nil {
			courseSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		courseSchemaC, courseSchemaErr = c.Compile(url)
	})
	return courseSchemaC, courseSchemaErr
}

// ParseCourse validates a course JSON document, including every lesson's
// embedded quiz content.
func ParseCourse(data []byte) (*CourseDocument, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse course: %w", err)
	}
	sch, err := compiledCourseSchema()
	if err != nil {
		return nil, fmt.Errorf("compile course schema: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return nil, fmt.Errorf("course document: %w", err)
	}

	var doc CourseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode course: %w", err)
	}
	for _, m := range doc.Modules {
		for _, l := range m.Lessons {
			if _, err := quiz.Parse(l.Quiz); err != nil {
				return nil, fmt.Errorf("lesson %q: %w", l.ID, err)
			}
		}
	}
	return &doc, nil
}

// ImportCourse replaces the course with the document's contents. Learner
// progress on lessons that keep their ids is preserved.
func (s *Store) ImportCourse(ctx context.Context, doc *CourseDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	run := func(q interface{ Query() (string, []any) }) error {
		stmt, args := q.Query()
		_, err := tx.ExecContext(ctx, stmt, args...)
		return err
	}

	err = run(builder().Insert(tableCourses).
		Columns("id", "title", "description", "created_at").
		Values(doc.ID, doc.Title, doc.Description, now()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("title")
				u.SetExcluded("description")
			}),
		))
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}

	// Lessons cascade with their modules.
	if err := run(builder().Delete(tableModules).Where(entsql.EQ("course_id", doc.ID))); err != nil {
		return fmt.Errorf("clear modules: %w", err)
	}

	for _, m := range doc.Modules {
		err := run(builder().Insert(tableModules).
			Columns("id", "course_id", "title", "position", "published").
			Values(m.ID, doc.ID, m.Title, m.Position, published(m.Published)))
		if err != nil {
			return fmt.Errorf("save module %q: %w", m.ID, err)
		}
		for _, l := range m.Lessons {
			err := run(builder().Insert(tableLessons).
				Columns("id", "module_id", "title", "position", "published",
					"video_url", "duration_secs", "summary", "quiz").
				Values(l.ID, m.ID, l.Title, l.Position, published(l.Published),
					l.VideoURL, l.DurationSecs, l.Summary, string(l.Quiz)))
			if err != nil {
				return fmt.Errorf("save lesson %q: %w", l.ID, err)
			}
		}
	}

	return tx.Commit()
}

func published(p *bool) bool {
	return p == nil || *p
}
