// Package coverage reads coverage.py JSON reports (coverage json -o coverage.json).
package coverage

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Report holds the totals of a coverage run. Nil fields were not reported.
type Report struct {
	Percent      *float64 `json:"coverage_percent"`
	LinesCovered *int     `json:"lines_covered"`
	LinesTotal   *int     `json:"lines_total"`
	Display      *string  `json:"branch_coverage"`
}

// Known reports whether a coverage percentage is available
func (r *Report) Known() bool {
	return r != nil && r.Percent != nil
}

// Meets reports whether the coverage is at or above threshold
func (r *Report) Meets(threshold float64) bool {
	return r.Known() && *r.Percent >= threshold
}

type document struct {
	Totals struct {
		PercentCovered        *float64 `json:"percent_covered"`
		CoveredLines          *int     `json:"covered_lines"`
		NumStatements         *int     `json:"num_statements"`
		PercentCoveredDisplay *string  `json:"percent_covered_display"`
	} `json:"totals"`
}

// Decode reads a coverage.py JSON document
func Decode(r io.Reader) (*Report, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse coverage JSON: %w", err)
	}

	return &Report{
		Percent:      doc.Totals.PercentCovered,
		LinesCovered: doc.Totals.CoveredLines,
		LinesTotal:   doc.Totals.NumStatements,
		Display:      doc.Totals.PercentCoveredDisplay,
	}, nil
}

// Parse reads a coverage file. Coverage is optional evidence, so a missing
// or unreadable file yields an empty report and a warning instead of an error.
func Parse(path string, logger *slog.Logger) *Report {
	if path == "" {
		logger.Warn("no coverage file provided")
		return &Report{}
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("coverage file not found", "path", path, "error", err)
		return &Report{}
	}
	defer f.Close()

	report, err := Decode(f)
	if err != nil {
		logger.Warn("could not parse coverage data", "path", path, "error", err)
		return &Report{}
	}

	if report.Known() {
		logger.Info("coverage loaded", "percent", fmt.Sprintf("%.1f", *report.Percent))
	}
	return report
}
