package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var personSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name": map[string]any{"type": "string"},
		"tags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"jobs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":       "object",
				"properties": map[string]any{"title": map[string]any{"type": "string"}},
				"required":   []string{"title"},
			},
		},
	},
	"required": []string{"name"},
}

func TestValidator_Valid(t *testing.T) {
	v, err := Compile(personSchema)
	require.NoError(t, err)

	doc := map[string]any{
		"name": "Jane",
		"tags": []any{"go"},
		"jobs": []any{map[string]any{"title": "Engineer"}},
	}
	assert.NoError(t, v.Validate(doc))
}

func TestValidator_Invalid(t *testing.T) {
	v, err := Compile(personSchema)
	require.NoError(t, err)

	tests := []struct {
		name  string
		doc   any
		field string
	}{
		{"missing required", map[string]any{"tags": []any{}}, "(root)"},
		{"wrong type", map[string]any{"name": 42}, "name"},
		{"nested required", map[string]any{"name": "J", "jobs": []any{map[string]any{}}}, "jobs.0"},
		{"not an object", []any{"x"}, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.doc)
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.field, validationErr.Errors[0].Field)
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]any{"type": 12})
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "field1", Message: "error message 1"},
			{Field: "field2", Message: "error message 2"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "field1: error message 1")
	assert.Contains(t, msg, "field2: error message 2")
}
