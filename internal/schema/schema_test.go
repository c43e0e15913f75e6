package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleArgs struct {
	Path    string  `json:"path" description:"File path"`
	Mode    string  `json:"mode" enum:"read,write" description:"Access mode"`
	Limit   *int    `json:"limit" description:"Optional limit"`
	Comment string  `json:"comment,omitempty"`
	Ratio   float64 `json:"ratio"`
	hidden  bool
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(sampleArgs{})

	props, ok := s["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "path")
	assert.Contains(t, props, "mode")
	assert.Contains(t, props, "limit")
	assert.Contains(t, props, "comment")
	assert.NotContains(t, props, "hidden")

	path := props["path"].(map[string]any)
	assert.Equal(t, "string", path["type"])
	assert.Equal(t, "File path", path["description"])

	mode := props["mode"].(map[string]any)
	assert.Equal(t, []any{"read", "write"}, mode["enum"])

	limit := props["limit"].(map[string]any)
	assert.Equal(t, "integer", limit["type"])

	ratio := props["ratio"].(map[string]any)
	assert.Equal(t, "number", ratio["type"])

	// Pointer and omitempty fields are optional.
	req, _ := s["required"].([]string)
	assert.ElementsMatch(t, []string{"path", "mode", "ratio"}, req)
}

func TestValidateRequired(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, Validate(map[string]any{"x": 5}, s))

	err := Validate(map[string]any{}, s)
	assert.Error(t, err)
	vErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "x", vErr.Field)
}

func TestValidateTypes(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"n": map[string]any{"type": "integer"},
			"s": map[string]any{"type": "string"},
		},
	}

	// JSON decoding yields float64; integral values pass as integers.
	assert.NoError(t, Validate(map[string]any{"n": float64(3)}, s))
	assert.Error(t, Validate(map[string]any{"n": 3.5}, s))
	assert.Error(t, Validate(map[string]any{"s": 1}, s))

	// Unknown fields are permitted.
	assert.NoError(t, Validate(map[string]any{"extra": true}, s))
}

func TestValidateEnum(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []any{"success", "failure"},
			},
		},
	}

	assert.NoError(t, Validate(map[string]any{"status": "success"}, s))

	err := Validate(map[string]any{"status": "partial"}, s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "allowed values")
}
