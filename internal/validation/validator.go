package validation

import (
	"fmt"
	"strings"

	"clinvalidate/internal/schema"
)

// ValidationError is a single data-quality finding against one field.
// It is returned inside a Result, never as a Go error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// String renders the error as "<field>: <reason>"
func (e ValidationError) String() string {
	return e.Field + ": " + e.Message
}

// Validator checks a record and reports every violation it finds
type Validator interface {
	Validate(rec schema.Record) []ValidationError
}

// ValidatorFunc adapts a plain function to the Validator interface
type ValidatorFunc func(rec schema.Record) []ValidationError

// Validate calls f(rec)
func (f ValidatorFunc) Validate(rec schema.Record) []ValidationError {
	return f(rec)
}

// CompositeValidator combines multiple validators
type CompositeValidator struct {
	validators []Validator
}

// NewCompositeValidator creates a new composite validator
func NewCompositeValidator(validators ...Validator) *CompositeValidator {
	return &CompositeValidator{
		validators: validators,
	}
}

// Validate runs all validators in order and concatenates their errors
func (c *CompositeValidator) Validate(rec schema.Record) []ValidationError {
	var errors []ValidationError
	for _, validator := range c.validators {
		errors = append(errors, validator.Validate(rec)...)
	}
	return errors
}

// Result is the verdict for one record
type Result struct {
	Valid  bool              `json:"is_valid"`
	Errors []ValidationError `json:"errors"`
}

// NewResult builds a Result whose Valid flag always agrees with errs
func NewResult(errs []ValidationError) Result {
	if errs == nil {
		errs = []ValidationError{}
	}
	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// Messages returns the errors in "<field>: <reason>" form
func (r Result) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return msgs
}

// CreateError creates a validation error
func CreateError(field, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
	}
}

// FormatErrors formats validation errors for display
func FormatErrors(errors []ValidationError, rowNumber int) string {
	if len(errors) == 0 {
		return ""
	}

	var lines []string
	for _, err := range errors {
		lines = append(lines, fmt.Sprintf("Row %d: %s", rowNumber, err))
	}
	return strings.Join(lines, "\n")
}
