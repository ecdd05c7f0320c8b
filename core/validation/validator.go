// Package validation checks rows against derived entity schemas before they
// reach storage.
package validation

import (
	"fmt"
	"math"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/schema"
)

// FieldError describes one rejected value.
type FieldError struct {
	Field   string
	Code    string
	Value   any
	Message string
}

// Result collects the errors of one row.
type Result struct {
	Errors []FieldError
}

// Valid reports whether the row passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Error joins the messages, or returns "" for a valid row.
func (r Result) Error() string {
	if r.Valid() {
		return ""
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

func (r *Result) add(field, code string, value any, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Value: value, Message: msg})
}

// Row validates a row for insertion. Unknown keys are rejected, required
// fields without a default must be present and values must match their
// field type. Implicit fields may be given but are not type checked.
func Row(ent convention.Derived, row map[string]any) Result {
	var result Result

	known := make(map[string]bool, len(ent.Fields))
	for _, f := range ent.Fields {
		known[f.Name] = true
	}

	unknown := make([]string, 0)
	for name := range row {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		result.add(name, "unknown_field", row[name],
			fmt.Sprintf("unknown field '%s' - not defined in schema", name))
	}

	for _, field := range ent.Fields {
		if field.Implicit {
			continue
		}

		value, ok := row[field.Name]
		if !ok || value == nil {
			if field.Required && field.Default == nil {
				result.add(field.Name, "required", nil, "field is required")
			}
			continue
		}

		checkType(&result, field, value)
	}

	return result
}

// Field validates a single value against its field.
func Field(field convention.DerivedField, value any) Result {
	var result Result
	if value == nil {
		if field.Required && field.Default == nil {
			result.add(field.Name, "required", nil, "field is required")
		}
		return result
	}
	checkType(&result, field, value)
	return result
}

func checkType(result *Result, field convention.DerivedField, value any) {
	if field.Translatable {
		if m, ok := value.(map[string]any); ok {
			for locale, v := range m {
				if _, ok := v.(string); !ok {
					result.add(field.Name, "type", value,
						fmt.Sprintf("translation %q must be a string", locale))
				}
			}
			return
		}
	}

	switch field.Type {
	case schema.FieldTypeString:
		if _, ok := value.(string); !ok {
			result.add(field.Name, "type", value, "must be a string")
		}

	case schema.FieldTypeEmail:
		str, ok := value.(string)
		if !ok {
			result.add(field.Name, "type", value, "must be a string")
		} else if _, err := mail.ParseAddress(str); err != nil {
			result.add(field.Name, "type", value, "invalid email address")
		}

	case schema.FieldTypeUUID:
		str, ok := value.(string)
		if !ok {
			result.add(field.Name, "type", value, "must be a string")
		} else if _, err := uuid.Parse(str); err != nil {
			result.add(field.Name, "type", value, "invalid UUID format")
		}

	case schema.FieldTypeInt:
		if !isInteger(value) {
			result.add(field.Name, "type", value, "must be an integer")
		}

	case schema.FieldTypeFloat:
		switch value.(type) {
		case float32, float64, int, int32, int64, uint, uint64:
		default:
			result.add(field.Name, "type", value, "must be a number")
		}

	case schema.FieldTypeBool:
		if _, ok := value.(bool); !ok {
			result.add(field.Name, "type", value, "must be a boolean")
		}

	case schema.FieldTypeTimestamp:
		switch t := value.(type) {
		case time.Time:
		case string:
			if _, err := dateparse.ParseIn(t, time.UTC); err != nil {
				result.add(field.Name, "type", value, "invalid timestamp")
			}
		default:
			result.add(field.Name, "type", value, "must be a timestamp")
		}
	}
}

func isInteger(value any) bool {
	switch n := value.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return true
	case float64:
		return n == math.Trunc(n)
	}
	return false
}
