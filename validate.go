package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"clinvalidate/internal/batch"
	"clinvalidate/internal/ingest"
	"clinvalidate/internal/metrics"
	"clinvalidate/internal/output"
	"clinvalidate/internal/schema"
	"clinvalidate/internal/transform"
	"clinvalidate/internal/validation"
)

type validateOptions struct {
	input         string
	now           string
	delimiter     string
	categoryField string
	resultsPath   string
	summaryPath   string
	fhirOut       string
	format        string
	maxResources  int
	metricsFile   string
}

func newValidateCmd(a *app) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <kind>",
		Short: "Validate a CSV or JSON file of patient or adverse_event records",
		Long: `Validates every record of the input file against the schema and business rules of <kind>
(patient or adverse_event), prints row-level errors and a category breakdown, and exits
non-zero when any record is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("category-field") {
				opts.categoryField = a.cfg.CategoryField(kind)
			}
			if !cmd.Flags().Changed("format") {
				opts.format = a.cfg.OutputFormat
			}
			if !cmd.Flags().Changed("delimiter") {
				opts.delimiter = a.cfg.Delimiter
			}
			return runValidate(a, kind, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Input CSV or JSON file (required)")
	f.StringVar(&opts.now, "now", "", "Reference time for the enrollment date check (YYYY-MM-DD or RFC 3339; default: current time)")
	f.StringVarP(&opts.delimiter, "delimiter", "d", ",", "CSV delimiter")
	f.StringVar(&opts.categoryField, "category-field", "", "Field to categorize records by (default from config)")
	f.StringVar(&opts.resultsPath, "results", "", "Write per-row results as NDJSON to this file")
	f.StringVar(&opts.summaryPath, "summary", "", "Write the batch summary as JSON to this file (input for report --batch)")
	f.StringVarP(&opts.fhirOut, "fhir-out", "o", "", "Export valid records as FHIR resources to this file (\"-\" for stdout)")
	f.StringVarP(&opts.format, "format", "f", "bundle", "FHIR output format: bundle or ndjson")
	f.IntVar(&opts.maxResources, "max-resources", 10000, "Maximum FHIR resources to export (0 for no limit)")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runValidate(a *app, kind schema.Kind, opts *validateOptions) error {
	logger := a.logger.With("kind", string(kind))

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	if opts.now != "" {
		now, err = schema.ParseDate(opts.now, loc)
		if err != nil {
			return fmt.Errorf("invalid --now value %q: %w", opts.now, err)
		}
	}

	cfg := *a.cfg
	cfg.Delimiter = opts.delimiter
	delimiter, err := cfg.DelimiterRune()
	if err != nil {
		return err
	}

	engine, err := validation.NewEngine(kind, now)
	if err != nil {
		return err
	}

	logger.Info("opening input", "path", opts.input)
	src, err := ingest.Open(opts.input, delimiter)
	if err != nil {
		return err
	}
	defer src.Close()

	m := metrics.New()
	processor := batch.NewProcessor(engine,
		batch.WithCategoryField(opts.categoryField),
		batch.WithLogger(logger),
		batch.WithMetrics(m),
	)

	summary, err := processor.Run(src)
	if err != nil {
		var mismatch *batch.SchemaMismatchError
		if errors.As(err, &mismatch) {
			logger.Error("input rejected", "missing", mismatch.Missing)
		}
		if opts.metricsFile != "" {
			if werr := m.WriteTextfile(opts.metricsFile); werr != nil {
				logger.Warn("failed to write metrics", "error", werr)
			}
		}
		return err
	}

	for _, row := range summary.Rows {
		if !row.Result.Valid {
			fmt.Fprintln(a.stderr, validation.FormatErrors(row.Result.Errors, row.RowNumber))
		}
	}

	if opts.resultsPath != "" {
		if err := writeResults(opts.resultsPath, summary); err != nil {
			return err
		}
	}

	if opts.summaryPath != "" {
		if err := writeJSONFile(opts.summaryPath, summary); err != nil {
			return err
		}
	}

	if opts.fhirOut != "" {
		exported, err := exportFHIR(a.stdout, kind, summary, opts)
		if err != nil {
			return err
		}
		logger.Info("exported FHIR resources", "count", exported, "path", opts.fhirOut)
	}

	if opts.metricsFile != "" {
		if err := m.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}

	// The FHIR stream owns stdout when exported there
	summaryOut := a.stdout
	if isStdout(opts.fhirOut) {
		summaryOut = a.stderr
	}
	printSummary(summaryOut, summary)

	if summary.Invalid > 0 {
		return errGateFailed
	}
	return nil
}

func writeResults(path string, summary *batch.Summary) error {
	w, err := output.NewWriter(path, output.FormatNDJSON)
	if err != nil {
		return err
	}
	for _, row := range summary.Rows {
		if err := w.Write(row); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func exportFHIR(stdout io.Writer, kind schema.Kind, summary *batch.Summary, opts *validateOptions) (int, error) {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return 0, err
	}

	transformer, err := transform.NewTransformer(kind)
	if err != nil {
		return 0, err
	}

	var w *output.Writer
	if isStdout(opts.fhirOut) {
		w = output.NewWriterTo(stdout, format, output.WithLimit(opts.maxResources))
	} else {
		w, err = output.NewWriter(opts.fhirOut, format, output.WithLimit(opts.maxResources))
		if err != nil {
			return 0, err
		}
	}

	for _, row := range summary.Rows {
		if !row.Result.Valid {
			continue
		}
		resource, err := transformer.Transform(row.Record, row.RowNumber)
		if err != nil {
			w.Close()
			return w.Count(), err
		}
		if err := w.Write(resource); err != nil {
			w.Close()
			if errors.Is(err, output.ErrLimitReached) {
				return w.Count(), fmt.Errorf("more than %d valid records; raise --max-resources", opts.maxResources)
			}
			return w.Count(), err
		}
	}

	return w.Count(), w.Close()
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func isStdout(path string) bool {
	return path == "-"
}

func printSummary(w io.Writer, s *batch.Summary) {
	out := termenv.NewOutput(w)

	status := out.String("PASSED").Bold().Foreground(out.Color("2"))
	if s.Invalid > 0 {
		status = out.String("FAILED").Bold().Foreground(out.Color("1"))
	}

	fmt.Fprintf(w, "%s: %d records, %d valid, %d invalid [%s]\n", s.Kind, s.Total, s.Valid, s.Invalid, status)

	if s.CategoryField == "" {
		return
	}
	fmt.Fprintf(w, "by %s:\n", s.CategoryField)
	for _, label := range s.Categories.Labels() {
		name := label
		if name == "" {
			name = "(missing)"
		}
		fmt.Fprintf(w, "  %-20s %d\n", name, s.Categories[label])
	}
}
