package transform

import (
	"fmt"
	"time"

	"github.com/samply/golang-fhir-models/fhir-models/fhir"

	"clinvalidate/internal/schema"
)

// Transformer converts validated records into FHIR R4 resources
type Transformer struct {
	kind schema.Kind
}

// NewTransformer creates a transformer for one entity kind
func NewTransformer(kind schema.Kind) (*Transformer, error) {
	if _, ok := ResourceType(kind); !ok {
		return nil, fmt.Errorf("no FHIR mapping for entity kind %q", string(kind))
	}
	return &Transformer{kind: kind}, nil
}

// Transform converts one record. The record is expected to have passed
// validation; missing values are left unset rather than rejected.
func (t *Transformer) Transform(rec schema.Record, rowNumber int) (interface{}, error) {
	switch t.kind {
	case schema.KindPatient:
		return toPatient(rec), nil
	case schema.KindAdverseEvent:
		return toAdverseEvent(rec), nil
	default:
		return nil, fmt.Errorf("row %d: unsupported entity kind %q", rowNumber, string(t.kind))
	}
}

func toPatient(rec schema.Record) *fhir.Patient {
	patient := &fhir.Patient{}

	if id := text(rec, "patient_id"); id != "" {
		patient.Id = ptr(id)
		patient.Identifier = []fhir.Identifier{{System: ptr(PatientIDSystem), Value: ptr(id)}}
	}

	switch text(rec, "gender") {
	case "M":
		patient.Gender = ptr(fhir.AdministrativeGenderMale)
	case "F":
		patient.Gender = ptr(fhir.AdministrativeGenderFemale)
	case "O":
		patient.Gender = ptr(fhir.AdministrativeGenderOther)
	}

	if site := text(rec, "site_id"); site != "" {
		patient.ManagingOrganization = &fhir.Reference{Reference: ptr("Organization/" + site)}
	}

	if consent, ok := rec["consent_signed"].(bool); ok {
		patient.Active = ptr(consent)
	}

	return patient
}

func toAdverseEvent(rec schema.Record) *fhir.AdverseEvent {
	event := &fhir.AdverseEvent{
		Actuality: fhir.AdverseEventActualityActual,
	}

	if id := text(rec, "event_id"); id != "" {
		event.Id = ptr(id)
		event.Identifier = &fhir.Identifier{System: ptr(EventIDSystem), Value: ptr(id)}
	}

	if patientID := text(rec, "patient_id"); patientID != "" {
		event.Subject = fhir.Reference{Reference: ptr("Patient/" + patientID)}
	}

	if date := text(rec, "event_date"); date != "" {
		event.Date = ptr(date)
	}

	if desc := text(rec, "description"); desc != "" {
		event.Event = &fhir.CodeableConcept{Text: ptr(desc)}
	}

	if level := text(rec, "severity"); level != "" {
		severity := &fhir.CodeableConcept{Text: ptr(level)}
		if code, ok := severityCodes[level]; ok {
			severity.Coding = []fhir.Coding{{System: ptr(severitySystem), Code: ptr(code), Display: ptr(level)}}
		} else {
			event.Seriousness = &fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: ptr(seriousnessSystem), Code: ptr("serious"), Display: ptr("Serious")}},
			}
		}
		event.Severity = severity
	}

	return event
}

// text returns a field as a string; dates are rendered as YYYY-MM-DD
func text(rec schema.Record, field string) string {
	switch v := rec[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}

func ptr[T any](v T) *T {
	return &v
}

// ToResource converts a single record without keeping a transformer around
func ToResource(kind schema.Kind, rec schema.Record) (interface{}, error) {
	t, err := NewTransformer(kind)
	if err != nil {
		return nil, err
	}
	return t.Transform(rec, 0)
}
