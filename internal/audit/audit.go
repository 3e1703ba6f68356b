// Package audit builds the pipeline audit trail kept alongside validation evidence.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Event names
const (
	EventPipelineStarted   = "pipeline_started"
	EventTestsExecuted     = "tests_executed"
	EventCoverageMeasured  = "coverage_measured"
	EventPipelineCompleted = "pipeline_completed"
)

// Outcome values
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// entryNamespace scopes the deterministic entry IDs
var entryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:clinvalidate:audit"))

// ErrMissingRunID is returned when pipeline data has no run_id
var ErrMissingRunID = errors.New("pipeline data is missing run_id")

// TestCounts are the test totals of a pipeline run
type TestCounts struct {
	Total   int `mapstructure:"total" json:"total"`
	Passed  int `mapstructure:"passed" json:"passed"`
	Failed  int `mapstructure:"failed" json:"failed"`
	Skipped int `mapstructure:"skipped" json:"skipped"`
}

// PipelineRun is the execution metadata of one CI pipeline run
type PipelineRun struct {
	RunID           string     `mapstructure:"run_id"`
	CommitSHA       string     `mapstructure:"commit_sha"`
	Actor           string     `mapstructure:"actor"`
	Workflow        string     `mapstructure:"workflow"`
	StartedAt       time.Time  `mapstructure:"started_at"`
	FinishedAt      time.Time  `mapstructure:"finished_at"`
	Tests           TestCounts `mapstructure:"tests"`
	CoveragePercent *float64   `mapstructure:"coverage_percent"`
}

// Entry is one audit trail record
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Event     string                 `json:"event"`
	Actor     string                 `json:"actor,omitempty"`
	Outcome   string                 `json:"outcome,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Log is the audit trail of one pipeline run
type Log struct {
	RunID     string  `json:"run_id"`
	CommitSHA string  `json:"commit_sha,omitempty"`
	Workflow  string  `json:"workflow,omitempty"`
	Outcome   string  `json:"outcome"`
	Entries   []Entry `json:"entries"`
}

// DecodeRun decodes loosely typed pipeline data (usually parsed JSON).
// Numbers given as strings and RFC 3339 timestamps are converted.
func DecodeRun(data map[string]interface{}) (PipelineRun, error) {
	var run PipelineRun

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           &run,
	})
	if err != nil {
		return PipelineRun{}, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return PipelineRun{}, fmt.Errorf("failed to decode pipeline data: %w", err)
	}

	if run.RunID == "" {
		return PipelineRun{}, ErrMissingRunID
	}

	return run, nil
}

// Generate builds the audit log of run. The run passes when no test failed
// and coverage, if measured, is at or above threshold.
func Generate(run PipelineRun, threshold float64) Log {
	passed := run.Tests.Failed == 0
	if run.CoveragePercent != nil && *run.CoveragePercent < threshold {
		passed = false
	}

	outcome := OutcomeFailed
	if passed {
		outcome = OutcomePassed
	}

	finished := run.FinishedAt
	if finished.IsZero() {
		finished = run.StartedAt
	}

	log := Log{
		RunID:     run.RunID,
		CommitSHA: run.CommitSHA,
		Workflow:  run.Workflow,
		Outcome:   outcome,
	}

	log.Entries = append(log.Entries, newEntry(run, EventPipelineStarted, run.StartedAt, "", map[string]interface{}{
		"commit_sha": run.CommitSHA,
		"workflow":   run.Workflow,
	}))

	testOutcome := OutcomePassed
	if run.Tests.Failed > 0 {
		testOutcome = OutcomeFailed
	}
	log.Entries = append(log.Entries, newEntry(run, EventTestsExecuted, finished, testOutcome, map[string]interface{}{
		"total":   run.Tests.Total,
		"passed":  run.Tests.Passed,
		"failed":  run.Tests.Failed,
		"skipped": run.Tests.Skipped,
	}))

	if run.CoveragePercent != nil {
		covOutcome := OutcomePassed
		if *run.CoveragePercent < threshold {
			covOutcome = OutcomeFailed
		}
		log.Entries = append(log.Entries, newEntry(run, EventCoverageMeasured, finished, covOutcome, map[string]interface{}{
			"coverage_percent": *run.CoveragePercent,
			"threshold":        threshold,
		}))
	}

	details := map[string]interface{}{}
	if !run.StartedAt.IsZero() && !run.FinishedAt.IsZero() {
		details["duration_seconds"] = run.FinishedAt.Sub(run.StartedAt).Seconds()
	}
	log.Entries = append(log.Entries, newEntry(run, EventPipelineCompleted, finished, outcome, details))

	return log
}

func newEntry(run PipelineRun, event string, at time.Time, outcome string, details map[string]interface{}) Entry {
	if len(details) == 0 {
		details = nil
	}
	return Entry{
		ID:        uuid.NewSHA1(entryNamespace, []byte(run.RunID+"/"+event)).String(),
		Timestamp: at.UTC(),
		Event:     event,
		Actor:     run.Actor,
		Outcome:   outcome,
		Details:   details,
	}
}

// Write writes log as indented JSON
func Write(w io.Writer, log Log) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
