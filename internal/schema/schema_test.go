package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForKind(t *testing.T) {
	s, err := ForKind(KindPatient)
	require.NoError(t, err)
	assert.Equal(t, KindPatient, s.Kind)
	assert.Equal(t, []string{"patient_id", "age", "gender", "enrollment_date", "site_id", "consent_signed"}, s.Required())

	s, err = ForKind(KindAdverseEvent)
	require.NoError(t, err)
	assert.Equal(t, []string{"event_id", "patient_id", "event_date", "description", "severity"}, s.Names())

	_, err = ForKind("device")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"patient", KindPatient},
		{"Patient", KindPatient},
		{"adverse_event", KindAdverseEvent},
		{"adverse-event", KindAdverseEvent},
		{"AE", KindAdverseEvent},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("lab_result")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	f, ok := Patient.Lookup("age")
	require.True(t, ok)
	assert.Equal(t, Integer, f.Type)
	require.NotNil(t, f.Min)
	require.NotNil(t, f.Max)
	assert.Equal(t, int64(18), *f.Min)
	assert.Equal(t, int64(85), *f.Max)

	_, ok = Patient.Lookup("weight")
	assert.False(t, ok)
}

func TestPatientPatterns(t *testing.T) {
	id, _ := Patient.Lookup("patient_id")
	assert.True(t, id.Pattern.MatchString("PAT000001"))
	assert.False(t, id.Pattern.MatchString("PAT0001"))
	assert.False(t, id.Pattern.MatchString("pat000001"))

	site, _ := Patient.Lookup("site_id")
	assert.True(t, site.Pattern.MatchString("SITE001"))
	assert.False(t, site.Pattern.MatchString("SITE1"))
}

func TestParseDate(t *testing.T) {
	valid := []string{
		"2024-01-15",
		"2024-01-15T10:30:00",
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00+05:00",
		"2024-01-15T10:30:00.123Z",
	}
	for _, v := range valid {
		t.Run(v, func(t *testing.T) {
			_, err := ParseDate(v, nil)
			assert.NoError(t, err)
		})
	}

	invalid := []string{"01/15/2024", "20240115", "2024-13-01", "2024-02-30", "not-a-date", ""}
	for _, v := range invalid {
		t.Run("invalid "+v, func(t *testing.T) {
			_, err := ParseDate(v, nil)
			assert.Error(t, err)
		})
	}
}

func TestParseDate_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := ParseDate("2024-01-15", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 15, got.Day())
}

func TestCoerce(t *testing.T) {
	row := map[string]string{
		"patient_id":      "PAT000001",
		"age":             "45",
		"gender":          "F",
		"enrollment_date": "2024-01-15",
		"site_id":         "SITE001",
		"consent_signed":  "true",
		"notes":           "extra column",
	}

	rec := Coerce(Patient, row)
	assert.Equal(t, int64(45), rec["age"])
	assert.Equal(t, true, rec["consent_signed"])
	assert.Equal(t, "2024-01-15", rec["enrollment_date"])
	assert.Equal(t, "extra column", rec["notes"])
}

func TestCoerce_KeepsUnparseableValues(t *testing.T) {
	rec := Coerce(Patient, map[string]string{
		"age":            "forty",
		"consent_signed": "maybe",
		"gender":         "",
	})
	assert.Equal(t, "forty", rec["age"])
	assert.Equal(t, "maybe", rec["consent_signed"])
	assert.Equal(t, "", rec["gender"])
}
