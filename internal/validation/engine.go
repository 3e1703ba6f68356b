package validation

import (
	"fmt"
	"reflect"
	"time"

	"clinvalidate/internal/schema"
)

// MalformedInputError reports input that is not a record at all. It signals
// a caller bug rather than a data-quality problem.
type MalformedInputError struct {
	Kind schema.Kind
	Got  string // Go type of the rejected input
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s input: expected a mapping of field names to values, got %s", e.Kind, e.Got)
}

// Engine validates records of one entity kind: schema checks first, then
// business rules, with every error kept.
type Engine struct {
	schema    schema.Schema
	validator Validator
}

// NewEngine creates the engine for kind. now is the reference time for
// rules that compare against the current date.
func NewEngine(kind schema.Kind, now time.Time) (*Engine, error) {
	s, err := schema.ForKind(kind)
	if err != nil {
		return nil, err
	}
	rules, err := Rules(kind, now)
	if err != nil {
		return nil, err
	}

	validators := append([]Validator{NewSchemaValidator(s)}, rules...)
	return &Engine{
		schema:    s,
		validator: NewCompositeValidator(validators...),
	}, nil
}

// NewPatientEngine creates a patient engine evaluated against now.
// It panics if now is the zero time.
func NewPatientEngine(now time.Time) *Engine {
	e, err := NewEngine(schema.KindPatient, now)
	if err != nil {
		panic(err)
	}
	return e
}

// NewAdverseEventEngine creates an adverse event engine
func NewAdverseEventEngine() *Engine {
	e, _ := NewEngine(schema.KindAdverseEvent, time.Time{})
	return e
}

// Kind returns the entity kind this engine validates
func (e *Engine) Kind() schema.Kind { return e.schema.Kind }

// Schema returns the schema this engine validates against
func (e *Engine) Schema() schema.Schema { return e.schema }

// Validate checks one record. Invalid data is reported in the Result; only
// input that is not a mapping returns an error (*MalformedInputError).
func (e *Engine) Validate(input any) (Result, error) {
	rec, err := e.Record(input)
	if err != nil {
		return Result{}, err
	}
	return e.ValidateRecord(rec), nil
}

// ValidateRecord runs the schema checks and business rules on rec
func (e *Engine) ValidateRecord(rec schema.Record) Result {
	return NewResult(e.validator.Validate(rec))
}

// Record converts input into a record. Any map keyed by strings is
// accepted; raw text rows (map[string]string) are coerced to the schema's
// types first.
func (e *Engine) Record(input any) (schema.Record, error) {
	switch v := input.(type) {
	case schema.Record:
		return v, nil
	case map[string]any:
		return schema.Record(v), nil
	case map[string]string:
		return schema.Coerce(e.schema, v), nil
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, &MalformedInputError{Kind: e.schema.Kind, Got: fmt.Sprintf("%T", input)}
	}

	rec := make(schema.Record, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		rec[iter.Key().String()] = iter.Value().Interface()
	}
	return rec, nil
}
