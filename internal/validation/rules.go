package validation

import (
	"fmt"
	"slices"
	"time"

	"clinvalidate/internal/schema"
)

// SeverityLevels is the ordered set of accepted adverse event severities
var SeverityLevels = []string{"Mild", "Moderate", "Severe", "Life-threatening", "Fatal"}

// PatientRules enforces the patient checks that a schema cannot express.
// Now is the reference date for the enrollment check and must be supplied
// by the caller; with a zero Now every enrollment date is in the future, so
// Rules rejects it.
type PatientRules struct {
	Now time.Time
}

// Validate checks the enrollment date and signed consent
func (r PatientRules) Validate(rec schema.Record) []ValidationError {
	var errors []ValidationError

	switch v := rec["enrollment_date"].(type) {
	case string:
		if v == "" {
			break // reported by the required check
		}
		enrolled, err := schema.ParseDate(v, r.Now.Location())
		if err != nil {
			errors = append(errors, CreateError("enrollment_date", "Invalid date format"))
			break
		}
		errors = append(errors, r.checkEnrollment(enrolled)...)
	case time.Time:
		errors = append(errors, r.checkEnrollment(v)...)
	}

	if signed, ok := rec["consent_signed"].(bool); ok && !signed {
		errors = append(errors, CreateError("consent_signed", "Patient must have signed consent"))
	}

	return errors
}

func (r PatientRules) checkEnrollment(enrolled time.Time) []ValidationError {
	if enrolled.After(r.Now) {
		return []ValidationError{CreateError("enrollment_date", "Cannot be in the future")}
	}
	return nil
}

// AdverseEventRules enforces the adverse event severity vocabulary
type AdverseEventRules struct{}

// Validate rejects any severity outside SeverityLevels. Matching is
// case-sensitive.
func (AdverseEventRules) Validate(rec schema.Record) []ValidationError {
	value, ok := rec["severity"]
	if !ok || value == nil {
		return nil
	}

	s, isString := value.(string)
	if !isString || !slices.Contains(SeverityLevels, s) {
		return []ValidationError{CreateError("severity", fmt.Sprintf("Invalid severity: %v", value))}
	}
	return nil
}

// Rules returns the business rule validators for an entity kind
func Rules(kind schema.Kind, now time.Time) ([]Validator, error) {
	switch kind {
	case schema.KindPatient:
		if now.IsZero() {
			return nil, fmt.Errorf("patient rules need a non-zero reference time")
		}
		return []Validator{PatientRules{Now: now}}, nil
	case schema.KindAdverseEvent:
		return []Validator{AdverseEventRules{}}, nil
	default:
		return nil, fmt.Errorf("no business rules for entity kind %q", string(kind))
	}
}
