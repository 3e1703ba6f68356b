// Package report renders the GxP validation report from test results,
// coverage totals and batch validation summaries.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"clinvalidate/internal/batch"
	"clinvalidate/internal/coverage"
	"clinvalidate/internal/junit"
)

// DefaultCoverageThreshold is the minimum coverage percentage for a passing report
const DefaultCoverageThreshold = 80.0

// Report status values
const (
	StatusPassed = "PASSED"
	StatusFailed = "FAILED"
)

// Input collects everything a report is built from
type Input struct {
	Tests             *junit.Summary
	Coverage          *coverage.Report
	CommitSHA         string
	GeneratedAt       time.Time
	CoverageThreshold *float64 // nil means DefaultCoverageThreshold
	Batches           []*batch.Summary
}

// Report is a generated validation report
type Report struct {
	Status            string           `json:"status"`
	GeneratedAt       time.Time        `json:"generated_at"`
	CommitSHA         string           `json:"commit_sha,omitempty"`
	CoverageThreshold float64          `json:"coverage_threshold"`
	TestsPassed       bool             `json:"tests_passed"`
	CoverageMet       bool             `json:"coverage_met"`
	Tests             *junit.Summary   `json:"tests"`
	Coverage          *coverage.Report `json:"coverage"`
	Batches           []*batch.Summary `json:"batches,omitempty"`
}

// Generate evaluates the quality gates and builds a report
func Generate(in Input) *Report {
	threshold := DefaultCoverageThreshold
	if in.CoverageThreshold != nil {
		threshold = *in.CoverageThreshold
	}

	tests := in.Tests
	if tests == nil {
		tests = &junit.Summary{Cases: []junit.Case{}, FailedCases: []junit.FailedCase{}}
	}
	cov := in.Coverage
	if cov == nil {
		cov = &coverage.Report{}
	}
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	r := &Report{
		GeneratedAt:       generated.UTC(),
		CommitSHA:         in.CommitSHA,
		CoverageThreshold: threshold,
		TestsPassed:       tests.Failed == 0,
		CoverageMet:       !cov.Known() || cov.Meets(threshold),
		Tests:             tests,
		Coverage:          cov,
		Batches:           in.Batches,
	}

	r.Status = StatusFailed
	if r.TestsPassed && r.CoverageMet {
		r.Status = StatusPassed
	}

	return r
}

// Passed reports whether every quality gate was met
func (r *Report) Passed() bool {
	return r.Status == StatusPassed
}

// JSON returns the machine-readable report
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// FormatDuration formats seconds as "250ms", "2.50s" or "2m 5.0s"
func FormatDuration(seconds float64) string {
	switch {
	case seconds < 1:
		return fmt.Sprintf("%.0fms", seconds*1000)
	case seconds < 60:
		return fmt.Sprintf("%.2fs", seconds)
	default:
		mins := math.Floor(seconds / 60)
		return fmt.Sprintf("%dm %.1fs", int(mins), seconds-mins*60)
	}
}
