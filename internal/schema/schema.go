// Package schema holds the minimal JSON-Schema helpers used by the tool
// subsystem: deriving a parameter schema from a Go struct and validating
// model-supplied arguments against one. Only the subset of JSON Schema the
// engine actually emits (type, properties, required, enum, description) is
// supported.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError describes a single argument that failed validation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// FromStruct derives a parameter schema from a struct via reflection.
// Exported fields become properties named after their json tag; fields that
// are neither pointers nor tagged omitempty are required. A `description`
// tag becomes the property description.
func FromStruct(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := map[string]any{}
	var required []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		jsonTag := f.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := f.Name
		optional := f.Type.Kind() == reflect.Ptr
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if strings.TrimSpace(opt) == "omitempty" {
					optional = true
				}
			}
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if desc := f.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enum := f.Tag.Get("enum"); enum != "" {
			var vals []any
			for _, v := range strings.Split(enum, ",") {
				vals = append(vals, strings.TrimSpace(v))
			}
			prop["enum"] = vals
		}
		properties[name] = prop

		if !optional {
			required = append(required, name)
		}
	}

	s := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Validate checks args against the schema: required fields must be present,
// present fields must match their declared type, and enum-constrained fields
// must hold one of the allowed values. Unknown fields are permitted.
func Validate(args map[string]any, s map[string]any) error {
	for _, name := range requiredFields(s) {
		if _, ok := args[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	properties, _ := s["properties"].(map[string]any)
	for name, value := range args {
		prop, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := prop["type"].(string)
		if wantType != "" && !matchesType(value, wantType) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", wantType, value),
			}
		}
		if enum, ok := prop["enum"]; ok && !matchesEnum(value, enum) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("value %v is not one of the allowed values", value),
			}
		}
	}
	return nil
}

// requiredFields tolerates both []string (hand-written schemas) and []any
// (schemas decoded from JSON).
func requiredFields(s map[string]any) []string {
	switch req := s["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, v := range req {
			if name, ok := v.(string); ok {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func matchesType(value any, want string) bool {
	if value == nil {
		return true
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON decoding yields float64 for all numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	return true
}

func matchesEnum(value any, enum any) bool {
	var allowed []any
	switch e := enum.(type) {
	case []any:
		allowed = e
	case []string:
		for _, s := range e {
			allowed = append(allowed, s)
		}
	default:
		return true
	}
	for _, a := range allowed {
		if fmt.Sprintf("%v", a) == fmt.Sprintf("%v", value) {
			return true
		}
	}
	return false
}
