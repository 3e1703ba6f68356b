package validation

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"clinvalidate/internal/schema"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCheckField_Required(t *testing.T) {
	field := schema.Field{Name: "site_id", Type: schema.String, Required: true}

	tests := []struct {
		name string
		rec  schema.Record
	}{
		{"absent", schema.Record{}},
		{"nil", schema.Record{"site_id": nil}},
		{"empty string", schema.Record{"site_id": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckField(field, tt.rec)
			assert.Equal(t, []ValidationError{{Field: "site_id", Message: "required field is missing or empty"}}, errs)
		})
	}
}

func TestCheckField_OptionalAbsent(t *testing.T) {
	field := schema.Field{Name: "notes", Type: schema.String}
	assert.Empty(t, CheckField(field, schema.Record{}))
	assert.Empty(t, CheckField(field, schema.Record{"notes": ""}))
}

func TestCheckField_Types(t *testing.T) {
	tests := []struct {
		name    string
		field   schema.Field
		value   any
		wantErr string
	}{
		{"string ok", schema.Field{Name: "f", Type: schema.String}, "x", ""},
		{"string got int", schema.Field{Name: "f", Type: schema.String}, 7, "f: expected string, got int"},
		{"int ok", schema.Field{Name: "f", Type: schema.Integer}, 45, ""},
		{"int64 ok", schema.Field{Name: "f", Type: schema.Integer}, int64(45), ""},
		{"whole float ok", schema.Field{Name: "f", Type: schema.Integer}, 45.0, ""},
		{"json number ok", schema.Field{Name: "f", Type: schema.Integer}, json.Number("45"), ""},
		{"fractional float", schema.Field{Name: "f", Type: schema.Integer}, 45.5, "f: expected integer, got float64"},
		{"json fraction", schema.Field{Name: "f", Type: schema.Integer}, json.Number("4.5"), "f: expected integer, got json.Number"},
		{"bool is not int", schema.Field{Name: "f", Type: schema.Integer}, true, "f: expected integer, got bool"},
		{"int from string", schema.Field{Name: "f", Type: schema.Integer}, "45", "f: expected integer, got string"},
		{"bool ok", schema.Field{Name: "f", Type: schema.Boolean}, false, ""},
		{"bool got string", schema.Field{Name: "f", Type: schema.Boolean}, "true", "f: expected boolean, got string"},
		{"date string ok", schema.Field{Name: "f", Type: schema.Date}, "2024-01-15", ""},
		{"date time ok", schema.Field{Name: "f", Type: schema.Date}, time.Now(), ""},
		{"date bad format", schema.Field{Name: "f", Type: schema.Date}, "15/01/2024", "f: invalid date format"},
		{"date got int", schema.Field{Name: "f", Type: schema.Date}, 20240115, "f: expected date, got int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckField(tt.field, schema.Record{"f": tt.value})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			if assert.Len(t, errs, 1) {
				assert.Equal(t, tt.wantErr, errs[0].String())
			}
		})
	}
}

func TestCheckField_PatternAndEnumCollected(t *testing.T) {
	field := schema.Field{
		Name:    "code",
		Type:    schema.String,
		Pattern: regexp.MustCompile(`^[A-Z]+$`),
		Enum:    []string{"AA", "BB"},
	}

	errs := CheckField(field, schema.Record{"code": "cc"})
	want := []string{
		`code: "cc" does not match pattern ^[A-Z]+$`,
		`code: "cc" is not one of [AA BB]`,
	}
	if diff := cmp.Diff(want, NewResult(errs).Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckField_Range(t *testing.T) {
	field := schema.Field{Name: "age", Type: schema.Integer, Min: int64Ptr(18), Max: int64Ptr(85)}

	assert.Empty(t, CheckField(field, schema.Record{"age": 18}))
	assert.Empty(t, CheckField(field, schema.Record{"age": 85}))
	assert.Equal(t, "age: 17 is less than the minimum of 18", CheckField(field, schema.Record{"age": 17})[0].String())
	assert.Equal(t, "age: 86 is greater than the maximum of 85", CheckField(field, schema.Record{"age": 86})[0].String())
}

func TestSchemaValidator_CollectsAllViolations(t *testing.T) {
	rec := schema.Record{
		"patient_id":      "INVALID",
		"age":             15,
		"gender":          "X",
		"enrollment_date": "2024-01-15",
		"site_id":         "SITE1",
		// consent_signed missing
	}

	got := NewResult(NewSchemaValidator(schema.Patient).Validate(rec)).Messages()
	want := []string{
		`patient_id: "INVALID" does not match pattern ^PAT[0-9]{6}$`,
		"age: 15 is less than the minimum of 18",
		`gender: "X" is not one of [M F O]`,
		`site_id: "SITE1" does not match pattern ^SITE[0-9]{3}$`,
		"consent_signed: required field is missing or empty",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}
