// Package batch validates tabular sources of records of one entity kind and
// folds the per-record verdicts into counts.
package batch

import (
	"fmt"
	"sort"
	"strings"

	"clinvalidate/internal/schema"
)

// SchemaMismatchError reports a source whose columns lack required fields.
// It is raised before any row is read.
type SchemaMismatchError struct {
	Kind    schema.Kind
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s source is missing required columns: %s", e.Kind, strings.Join(e.Missing, ", "))
}

// CheckColumns verifies that every required field of s is a column
func CheckColumns(s schema.Schema, columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	var missing []string
	for _, name := range s.Required() {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &SchemaMismatchError{Kind: s.Kind, Missing: missing}
	}
	return nil
}

// AggregateCount maps a category label to the number of records carrying it
type AggregateCount map[string]int

// Total returns the sum of all counts
func (a AggregateCount) Total() int {
	total := 0
	for _, n := range a {
		total += n
	}
	return total
}

// Labels returns the labels sorted by descending count, then by name
func (a AggregateCount) Labels() []string {
	labels := make([]string, 0, len(a))
	for label := range a {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if a[labels[i]] != a[labels[j]] {
			return a[labels[i]] > a[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

// Categorize counts occurrences of each observed value. Values are not
// checked against any vocabulary.
func Categorize(values []string) AggregateCount {
	counts := make(AggregateCount)
	for _, v := range values {
		counts[v]++
	}
	return counts
}

// CategorizeRecords counts records by the literal value of field. Records
// without the field are counted under "".
func CategorizeRecords(records []schema.Record, field string) AggregateCount {
	counts := make(AggregateCount)
	for _, rec := range records {
		counts[label(rec[field])]++
	}
	return counts
}

func label(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
