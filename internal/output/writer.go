package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samply/golang-fhir-models/fhir-models/fhir"
)

// Format represents the output format type
type Format string

const (
	FormatBundle Format = "bundle"
	FormatNDJSON Format = "ndjson"
)

// ErrLimitReached is returned by Write once the writer holds its maximum
// number of entries
var ErrLimitReached = errors.New("output limit reached")

// Writer writes FHIR resources or validation results as a collection
// Bundle or as newline-delimited JSON
type Writer struct {
	writer  io.Writer
	format  Format
	file    *os.File
	entries []json.RawMessage
	written int
	limit   int
}

// Option configures a Writer
type Option func(*Writer)

// WithLimit caps the number of entries the writer accepts. Zero means no limit.
func WithLimit(n int) Option {
	return func(w *Writer) {
		w.limit = n
	}
}

// NewWriter creates an output writer for a file path; "" or "-" writes to stdout
func NewWriter(outputPath string, format Format, opts ...Option) (*Writer, error) {
	if outputPath == "" || outputPath == "-" {
		return NewWriterTo(os.Stdout, format, opts...), nil
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := NewWriterTo(file, format, opts...)
	w.file = file
	return w, nil
}

// NewWriterTo creates an output writer on top of an existing io.Writer.
// The caller keeps ownership of out.
func NewWriterTo(out io.Writer, format Format, opts ...Option) *Writer {
	w := &Writer{
		writer: out,
		format: format,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Count returns how many entries have been accepted
func (w *Writer) Count() int {
	return w.written
}

// Write writes one value to the output
func (w *Writer) Write(v interface{}) error {
	if w.limit > 0 && w.written >= w.limit {
		return ErrLimitReached
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %d: %w", w.written+1, err)
	}

	if w.format == FormatNDJSON {
		data = append(data, '\n')
		if _, err := w.writer.Write(data); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	} else {
		w.entries = append(w.entries, data)
	}

	w.written++
	return nil
}

// Close finalizes the output (creates bundle if needed) and closes the file
func (w *Writer) Close() error {
	var err error
	if w.format == FormatBundle {
		err = w.writeBundle()
	}

	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// writeBundle creates and writes a FHIR collection Bundle holding every entry
func (w *Writer) writeBundle() error {
	entries := make([]fhir.BundleEntry, 0, len(w.entries))
	for _, raw := range w.entries {
		entries = append(entries, fhir.BundleEntry{Resource: raw})
	}

	total := len(entries)
	bundle := &fhir.Bundle{
		Type:  fhir.BundleTypeCollection,
		Entry: entries,
		Total: &total,
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	return nil
}

// ParseFormat parses a format string into a Format type
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bundle", "":
		return FormatBundle, nil
	case "ndjson":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: bundle, ndjson)", s)
	}
}
