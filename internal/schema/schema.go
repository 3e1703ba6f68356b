package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the category of record being validated
type Kind string

const (
	KindPatient      Kind = "patient"
	KindAdverseEvent Kind = "adverse_event"
)

// FieldType is the declared value type of a schema field
type FieldType int

const (
	String FieldType = iota
	Integer
	Boolean
	Date
)

// String returns the name used in validation messages
func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Record is one patient or adverse event keyed by field name
type Record map[string]any

// Field describes a single field of an entity kind
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Pattern  *regexp.Regexp // nil = no pattern
	Enum     []string       // empty = any value
	Min      *int64         // integer fields only
	Max      *int64
}

// Schema is the fixed description of one entity kind
type Schema struct {
	Kind    Kind
	Version string
	Fields  []Field
}

// Lookup returns the field definition for name
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required returns the required field names in schema order
func (s Schema) Required() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Names returns every field name in schema order
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

func bound(v int64) *int64 { return &v }

// Patient is the demographic schema for enrolled trial participants
var Patient = Schema{
	Kind:    KindPatient,
	Version: "1.0.0",
	Fields: []Field{
		{Name: "patient_id", Type: String, Required: true, Pattern: regexp.MustCompile(`^PAT[0-9]{6}$`)},
		{Name: "age", Type: Integer, Required: true, Min: bound(18), Max: bound(85)},
		{Name: "gender", Type: String, Required: true, Enum: []string{"M", "F", "O"}},
		{Name: "enrollment_date", Type: Date, Required: true},
		{Name: "site_id", Type: String, Required: true, Pattern: regexp.MustCompile(`^SITE[0-9]{3}$`)},
		{Name: "consent_signed", Type: Boolean, Required: true},
	},
}

// AdverseEvent is the schema for reported adverse events.
// Severity membership is enforced by a business rule, not here.
var AdverseEvent = Schema{
	Kind:    KindAdverseEvent,
	Version: "1.0.0",
	Fields: []Field{
		{Name: "event_id", Type: String, Required: true},
		{Name: "patient_id", Type: String, Required: true},
		{Name: "event_date", Type: Date, Required: true},
		{Name: "description", Type: String, Required: true},
		{Name: "severity", Type: String, Required: true},
	},
}

// ForKind returns the schema registered for an entity kind
func ForKind(kind Kind) (Schema, error) {
	switch kind {
	case KindPatient:
		return Patient, nil
	case KindAdverseEvent:
		return AdverseEvent, nil
	default:
		return Schema{}, fmt.Errorf("unknown entity kind: %q", string(kind))
	}
}

// ParseKind parses an entity kind name (case-insensitive)
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient", "patients":
		return KindPatient, nil
	case "adverse_event", "adverse-event", "adverse_events", "ae":
		return KindAdverseEvent, nil
	default:
		return "", fmt.Errorf("unsupported entity kind: %s (supported: patient, adverse_event)", s)
	}
}
