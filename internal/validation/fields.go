package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"clinvalidate/internal/schema"
)

// SchemaValidator checks a record against the declarative schema of its kind
type SchemaValidator struct {
	schema schema.Schema
}

// NewSchemaValidator creates a validator for the given schema
func NewSchemaValidator(s schema.Schema) *SchemaValidator {
	return &SchemaValidator{schema: s}
}

// Validate checks every field in schema order and collects all violations
func (v *SchemaValidator) Validate(rec schema.Record) []ValidationError {
	var errors []ValidationError
	for _, field := range v.schema.Fields {
		errors = append(errors, CheckField(field, rec)...)
	}
	return errors
}

// CheckField runs the required, type, format, enum and range checks for one
// field. A missing or mistyped value stops further checks on that field.
func CheckField(field schema.Field, rec schema.Record) []ValidationError {
	value, exists := rec[field.Name]
	if isEmpty(value, exists) {
		if field.Required {
			return []ValidationError{CreateError(field.Name, "required field is missing or empty")}
		}
		return nil
	}

	switch field.Type {
	case schema.String:
		s, ok := value.(string)
		if !ok {
			return []ValidationError{typeError(field, value)}
		}
		return checkString(field, s)

	case schema.Integer:
		n, ok := asInteger(value)
		if !ok {
			return []ValidationError{typeError(field, value)}
		}
		return checkRange(field, n)

	case schema.Boolean:
		if _, ok := value.(bool); !ok {
			return []ValidationError{typeError(field, value)}
		}
		return nil

	case schema.Date:
		switch d := value.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := schema.ParseDate(d, time.UTC); err != nil {
				return []ValidationError{CreateError(field.Name, "invalid date format")}
			}
			return nil
		default:
			return []ValidationError{typeError(field, value)}
		}
	}

	return []ValidationError{CreateError(field.Name, fmt.Sprintf("unsupported field type %s", field.Type))}
}

// isEmpty treats absent, nil and "" identically
func isEmpty(value any, exists bool) bool {
	if !exists || value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func typeError(field schema.Field, value any) ValidationError {
	return CreateError(field.Name, fmt.Sprintf("expected %s, got %T", field.Type, value))
}

func checkString(field schema.Field, s string) []ValidationError {
	var errors []ValidationError
	if field.Pattern != nil && !field.Pattern.MatchString(s) {
		errors = append(errors, CreateError(field.Name,
			fmt.Sprintf("%q does not match pattern %s", s, field.Pattern)))
	}
	if len(field.Enum) > 0 && !slices.Contains(field.Enum, s) {
		errors = append(errors, CreateError(field.Name,
			fmt.Sprintf("%q is not one of %v", s, field.Enum)))
	}
	return errors
}

func checkRange(field schema.Field, n int64) []ValidationError {
	var errors []ValidationError
	if field.Min != nil && n < *field.Min {
		errors = append(errors, CreateError(field.Name,
			fmt.Sprintf("%d is less than the minimum of %d", n, *field.Min)))
	}
	if field.Max != nil && n > *field.Max {
		errors = append(errors, CreateError(field.Name,
			fmt.Sprintf("%d is greater than the maximum of %d", n, *field.Max)))
	}
	return errors
}

// asInteger accepts Go integer kinds, whole floats (decoded JSON) and
// integral json.Number values. Booleans are never integers.
func asInteger(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return clampUint(uint64(v)), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return clampUint(v), true
	case float32:
		return wholeFloat(float64(v))
	case float64:
		return wholeFloat(v)
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func clampUint(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func wholeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
