package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinvalidate/internal/schema"
)

func TestCheckColumns(t *testing.T) {
	err := CheckColumns(schema.AdverseEvent, []string{"event_id", "patient_id", "event_date", "description", "severity", "extra"})
	assert.NoError(t, err)
}

func TestCheckColumns_Missing(t *testing.T) {
	err := CheckColumns(schema.AdverseEvent, []string{"event_id", "description"})
	require.Error(t, err)

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, schema.KindAdverseEvent, mismatch.Kind)
	assert.Equal(t, []string{"patient_id", "event_date", "severity"}, mismatch.Missing)
	assert.Contains(t, err.Error(), "missing required columns: patient_id, event_date, severity")
}

func TestCategorize(t *testing.T) {
	counts := Categorize([]string{"Mild", "Moderate", "Mild"})
	assert.Equal(t, AggregateCount{"Mild": 2, "Moderate": 1}, counts)
	assert.Equal(t, 3, counts.Total())
}

func TestCategorize_UnknownLabelsCounted(t *testing.T) {
	values := []string{"Mild", "mild", "Unknown", "", "Mild"}
	counts := Categorize(values)

	assert.Equal(t, 2, counts["Mild"])
	assert.Equal(t, 1, counts["mild"])
	assert.Equal(t, 1, counts["Unknown"])
	assert.Equal(t, 1, counts[""])
	assert.Equal(t, len(values), counts.Total())
}

func TestCategorizeRecords(t *testing.T) {
	recs := []schema.Record{
		{"severity": "Severe"},
		{"severity": "Mild"},
		{},
		{"severity": nil},
		{"severity": 3},
	}

	counts := CategorizeRecords(recs, "severity")
	assert.Equal(t, AggregateCount{"Severe": 1, "Mild": 1, "": 2, "3": 1}, counts)
	assert.Equal(t, len(recs), counts.Total())
}

func TestAggregateCount_Labels(t *testing.T) {
	counts := AggregateCount{"Mild": 3, "Fatal": 1, "Moderate": 3, "Severe": 2}
	assert.Equal(t, []string{"Mild", "Moderate", "Severe", "Fatal"}, counts.Labels())
}
