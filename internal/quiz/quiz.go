// Package quiz holds a lesson's quiz content: the warm-up questions asked
// before the video and the in-lesson questions triggered at timestamps.
package quiz

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedMajor is the content format major version this build reads.
const SupportedMajor = "v1"

// QuestionType distinguishes locally scored questions from tutor-scored ones.
type QuestionType string

const (
	TypeMCQ  QuestionType = "mcq"
	TypeText QuestionType = "text"
)

// WarmupQuestion is a multiple-choice question asked before the lesson.
type WarmupQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
	Feedback      string   `json:"feedback,omitempty"`
}

// InlessonQuestion is asked when playback reaches Timestamp (seconds).
type InlessonQuestion struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Timestamp     float64      `json:"timestamp"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption string       `json:"correct_option,omitempty"`
	Feedback      string       `json:"feedback,omitempty"`
}

// Content is a lesson's full quiz definition.
type Content struct {
	Version  string             `json:"version,omitempty"`
	Warmup   []WarmupQuestion   `json:"warmup"`
	Inlesson []InlessonQuestion `json:"inlesson"`
}

var contentSchema = map[string]any{
	"type":     "object",
	"required": []any{"warmup", "inlesson"},
	"properties": map[string]any{
		"version": map[string]any{"type": "string"},
		"warmup": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "question", "options", "correct_option"},
				"properties": map[string]any{
					"id":             map[string]any{"type": "string", "minLength": 1},
					"question":       map[string]any{"type": "string", "minLength": 1},
					"options":        map[string]any{"type": "array", "minItems": 2, "items": map[string]any{"type": "string"}},
					"correct_option": map[string]any{"type": "string"},
					"feedback":       map[string]any{"type": "string"},
				},
			},
		},
		"inlesson": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "question", "timestamp", "type"},
				"properties": map[string]any{
					"id":             map[string]any{"type": "string", "minLength": 1},
					"question":       map[string]any{"type": "string", "minLength": 1},
					"timestamp":      map[string]any{"type": "number", "minimum": 0},
					"type":           map[string]any{"enum": []any{"mcq", "text"}},
					"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"correct_option": map[string]any{"type": "string"},
					"feedback":       map[string]any{"type": "string"},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		const url = "schema://quiz-content.json"
		if err := c.AddResource(url, contentSchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// Parse decodes and validates quiz content. Empty input yields empty content.
func Parse(data []byte) (*Content, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Content{}, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse quiz content: %w", err)
	}
	sch, err := schema()
	if err != nil {
		return nil, fmt.Errorf("compile quiz schema: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return nil, fmt.Errorf("quiz content: %w", err)
	}

	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode quiz content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the rules a JSON schema cannot express: a supported
// version, unique ids, and correct options that exist.
func (c *Content) Validate() error {
	if err := checkVersion(c.Version); err != nil {
		return err
	}

	ids := make(map[string]bool)
	for _, q := range c.Warmup {
		if ids[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = true
		if !contains(q.Options, q.CorrectOption) {
			return fmt.Errorf("warm-up question %q: correct option %q is not an option", q.ID, q.CorrectOption)
		}
	}
	for _, q := range c.Inlesson {
		if ids[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = true
		if q.Type == TypeMCQ && !contains(q.Options, q.CorrectOption) {
			return fmt.Errorf("in-lesson question %q: correct option %q is not an option", q.ID, q.CorrectOption)
		}
	}
	return nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid content version %q", v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("unsupported content version %s (this build reads %s.x)", v, SupportedMajor)
	}
	return nil
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}

// InlessonAt returns the in-lesson questions due at or before seconds,
// ordered by timestamp.
func (c *Content) InlessonAt(seconds float64) []InlessonQuestion {
	var due []InlessonQuestion
	for _, q := range c.Inlesson {
		if q.Timestamp <= seconds {
			due = append(due, q)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Timestamp < due[j].Timestamp })
	return due
}

// InlessonByID finds an in-lesson question.
func (c *Content) InlessonByID(id string) (InlessonQuestion, bool) {
	for _, q := range c.Inlesson {
		if q.ID == id {
			return q, true
		}
	}
	return InlessonQuestion{}, false
}

// Correct reports whether answer matches the warm-up question's key.
func (q WarmupQuestion) Correct(answer string) bool {
	return answer == q.CorrectOption
}
