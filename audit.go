package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clinvalidate/internal/audit"
)

type auditOptions struct {
	inputPath  string
	outputPath string
	threshold  float64
}

func newAuditCmd(a *app) *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Generate the audit log of a pipeline run",
		Long:  `Reads pipeline execution data (JSON) and writes its audit trail as indented JSON.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = a.cfg.CoverageThreshold
			}
			return runAudit(a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.inputPath, "input", "i", "", "Pipeline data JSON file (required)")
	f.StringVarP(&opts.outputPath, "output", "o", "-", "Output file (\"-\" for stdout)")
	f.Float64Var(&opts.threshold, "threshold", 80, "Minimum coverage percentage (default from config)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAudit(a *app, opts *auditOptions) error {
	data, err := os.ReadFile(opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to read pipeline data: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse pipeline data: %w", err)
	}

	run, err := audit.DecodeRun(raw)
	if err != nil {
		return err
	}

	log := audit.Generate(run, opts.threshold)

	var buf bytes.Buffer
	if err := audit.Write(&buf, log); err != nil {
		return err
	}
	if err := writeOutput(a.stdout, opts.outputPath, buf.Bytes()); err != nil {
		return err
	}

	a.logger.Info("audit log generated", "run_id", run.RunID, "outcome", log.Outcome, "entries", len(log.Entries))
	return nil
}
