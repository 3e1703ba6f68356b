package transform

import (
	"clinvalidate/internal/schema"
)

// Identifier systems stamped on exported resources
const (
	PatientIDSystem = "urn:clinvalidate:patient-id"
	EventIDSystem   = "urn:clinvalidate:adverse-event-id"

	severitySystem    = "http://terminology.hl7.org/CodeSystem/adverse-event-severity"
	seriousnessSystem = "http://terminology.hl7.org/CodeSystem/adverse-event-seriousness"
)

// Registry maps entity kinds to the FHIR resource they export as
var Registry = map[schema.Kind]string{
	schema.KindPatient:      "Patient",
	schema.KindAdverseEvent: "AdverseEvent",
}

// severityCodes maps severity levels onto the FHIR R4 severity code system.
// Levels without a code are carried as text and flagged as serious.
var severityCodes = map[string]string{
	"Mild":     "mild",
	"Moderate": "moderate",
	"Severe":   "severe",
}

// ResourceType returns the FHIR resource type name for kind
func ResourceType(kind schema.Kind) (string, bool) {
	name, ok := Registry[kind]
	return name, ok
}
