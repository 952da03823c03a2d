package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func evaluationSchema() *Schema {
	return &Schema{
		Name:        "answer-evaluation",
		Description: "Verdict on a learner's free-text answer",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"correct":    map[string]any{"type": "boolean"},
				"feedback":   map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "string", "enum": []any{"low", "medium", "high"}},
			},
			"required": []any{"correct", "feedback"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"complete", `{"correct":true,"feedback":"Exactly.","confidence":"high"}`, true},
		{"optional field omitted", `{"correct":false,"feedback":"Not quite."}`, true},
		{"missing required", `{"correct":true}`, false},
		{"wrong type", `{"correct":"yes","feedback":"ok"}`, false},
		{"enum violation", `{"correct":true,"feedback":"ok","confidence":"absolute"}`, false},
		{"malformed", `{"correct":`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(evaluationSchema(), json.RawMessage(tt.raw))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var bad *BadOutputError
			if assert.ErrorAs(t, err, &bad) {
				assert.Equal(t, tt.raw, string(bad.Content))
				assert.Equal(t, "answer-evaluation", bad.Schema)
			}
		})
	}
}

func TestValidateResponseNilSchema(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`anything`)))
}

func TestValidateResponseNested(t *testing.T) {
	s := &Schema{
		Name: "lesson-recap",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"points": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type":       "object",
						"properties": map[string]any{"text": map[string]any{"type": "string"}},
						"required":   []any{"text"},
					},
				},
			},
			"required": []any{"points"},
		},
	}
	assert.NoError(t, validateResponse(s, json.RawMessage(`{"points":[{"text":"Structs group fields."}]}`)))
	assert.Error(t, validateResponse(s, json.RawMessage(`{"points":[]}`)))
	assert.Error(t, validateResponse(s, json.RawMessage(`{"points":[{"txt":"typo"}]}`)))
}
