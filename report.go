package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"clinvalidate/internal/batch"
	"clinvalidate/internal/coverage"
	"clinvalidate/internal/junit"
	"clinvalidate/internal/report"
)

type reportOptions struct {
	junitPath    string
	coveragePath string
	commitSHA    string
	outputPath   string
	format       string
	threshold    float64
	batches      []string
	render       bool
}

func newReportCmd(a *app) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the GxP validation report from JUnit XML and coverage results",
		Long: `Builds the validation report from a JUnit XML file, an optional coverage.py JSON file
and optional batch summaries written by "validate --summary". Exits non-zero when a
quality gate fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = a.cfg.CoverageThreshold
			}
			return runReport(a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.junitPath, "junit", "", "JUnit XML test results (required)")
	f.StringVar(&opts.coveragePath, "coverage", "", "coverage.py JSON report")
	f.StringVar(&opts.commitSHA, "commit", "", "Commit SHA the results belong to")
	f.StringVarP(&opts.outputPath, "output", "o", "-", "Output file (\"-\" for stdout)")
	f.StringVarP(&opts.format, "format", "f", "markdown", "Report format: markdown or json")
	f.Float64Var(&opts.threshold, "threshold", report.DefaultCoverageThreshold, "Minimum coverage percentage (default from config)")
	f.StringArrayVar(&opts.batches, "batch", nil, "Batch summary JSON written by validate --summary (repeatable)")
	f.BoolVar(&opts.render, "render", false, "Render Markdown for the terminal when writing to a TTY")
	_ = cmd.MarkFlagRequired("junit")

	return cmd
}

func runReport(a *app, opts *reportOptions) error {
	a.logger.Info("parsing test results", "path", opts.junitPath)
	tests, err := junit.Parse(opts.junitPath)
	if err != nil {
		return err
	}
	a.logger.Info("parsed test results", "total", tests.Total, "failed", tests.Failed)

	cov := coverage.Parse(opts.coveragePath, a.logger)

	var summaries []*batch.Summary
	for _, path := range opts.batches {
		s, err := readBatchSummary(path)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
	}

	r := report.Generate(report.Input{
		Tests:             tests,
		Coverage:          cov,
		CommitSHA:         opts.commitSHA,
		GeneratedAt:       time.Now(),
		CoverageThreshold: &opts.threshold,
		Batches:           summaries,
	})

	var content []byte
	switch opts.format {
	case "markdown", "md", "":
		content = []byte(r.Markdown())
		if opts.render && isTerminal(a.stdout) && (opts.outputPath == "" || opts.outputPath == "-") {
			rendered, err := renderMarkdown(string(content))
			if err != nil {
				a.logger.Warn("falling back to plain markdown", "error", err)
			} else {
				content = []byte(rendered)
			}
		}
	case "json":
		content, err = r.JSON()
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported report format: %s (supported: markdown, json)", opts.format)
	}

	if err := writeOutput(a.stdout, opts.outputPath, content); err != nil {
		return err
	}

	a.logger.Info("validation report generated",
		"status", r.Status, "passed", tests.Passed, "total", tests.Total, "output", opts.outputPath)

	if !r.Passed() {
		return errGateFailed
	}
	return nil
}

func readBatchSummary(path string) (*batch.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch summary: %w", err)
	}
	var s batch.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse batch summary %s: %w", path, err)
	}
	return &s, nil
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// isTerminal reports whether w is a file attached to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeOutput writes content to path, or to stdout for "" and "-"
func writeOutput(stdout io.Writer, path string, content []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(content)
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
