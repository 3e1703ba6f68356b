package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the ISO 8601 forms accepted for date fields
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses an ISO date or datetime. Values without a zone are
// interpreted in loc (UTC when loc is nil).
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO date: %q", value)
}

// Coerce converts raw CSV cells into typed record values using the schema.
// Cells that do not parse as their declared type are kept as strings so the
// type check reports them; empty cells and unknown columns pass through.
func Coerce(s Schema, row map[string]string) Record {
	rec := make(Record, len(row))
	for name, raw := range row {
		field, ok := s.Lookup(name)
		if !ok || raw == "" {
			rec[name] = raw
			continue
		}

		switch field.Type {
		case Integer:
			if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
				rec[name] = n
				continue
			}
		case Boolean:
			if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
				rec[name] = b
				continue
			}
		}
		rec[name] = raw
	}
	return rec
}
