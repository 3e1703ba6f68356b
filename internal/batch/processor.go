package batch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"clinvalidate/internal/logging"
	"clinvalidate/internal/metrics"
	"clinvalidate/internal/schema"
	"clinvalidate/internal/validation"
)

// RowResult is the verdict for one source row
type RowResult struct {
	RowNumber int               `json:"row"`
	Record    schema.Record     `json:"-"`
	Result    validation.Result `json:"result"`
}

// Summary is the outcome of validating one source
type Summary struct {
	Kind          schema.Kind    `json:"kind"`
	Total         int            `json:"total"`
	Valid         int            `json:"valid"`
	Invalid       int            `json:"invalid"`
	CategoryField string         `json:"category_field,omitempty"`
	Categories    AggregateCount `json:"categories,omitempty"`
	Rows          []RowResult    `json:"rows"`
}

// ValidRecords returns the records that passed validation
func (s *Summary) ValidRecords() []schema.Record {
	var recs []schema.Record
	for _, r := range s.Rows {
		if r.Result.Valid {
			recs = append(recs, r.Record)
		}
	}
	return recs
}

// Processor validates every row of a source with one engine
type Processor struct {
	engine        *validation.Engine
	categoryField string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// Option configures a Processor
type Option func(*Processor)

// WithCategoryField enables categorization on field
func WithCategoryField(field string) Option {
	return func(p *Processor) { p.categoryField = field }
}

// WithLogger sets the processor logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithMetrics records verdicts into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// NewProcessor creates a processor around engine
func NewProcessor(engine *validation.Engine, opts ...Option) *Processor {
	p := &Processor{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run checks the source structure, then validates each row in order. A
// structural mismatch, a read error or malformed input aborts the batch.
func (p *Processor) Run(src Source) (*Summary, error) {
	s := p.engine.Schema()
	if err := CheckColumns(s, src.Headers()); err != nil {
		p.metrics.ObserveRejectedBatch(s.Kind)
		return nil, err
	}

	summary := &Summary{
		Kind:          s.Kind,
		CategoryField: p.categoryField,
		Rows:          []RowResult{},
	}
	var records []schema.Record
	lastRow := 0

	for {
		item, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record after row %d: %w", lastRow, err)
		}
		lastRow = item.RowNumber

		rec, err := p.engine.Record(item.Value)
		if err != nil {
			p.metrics.ObserveRejectedBatch(s.Kind)
			return nil, fmt.Errorf("row %d: %w", item.RowNumber, err)
		}
		res := p.engine.ValidateRecord(rec)

		summary.Total++
		if res.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
			p.logger.Debug("record failed validation",
				"kind", s.Kind, "row", item.RowNumber, "errors", len(res.Errors))
		}
		p.metrics.ObserveResult(s.Kind, res.Valid, fieldsOf(res.Errors))

		summary.Rows = append(summary.Rows, RowResult{RowNumber: item.RowNumber, Record: rec, Result: res})
		records = append(records, rec)
	}

	if p.categoryField != "" {
		summary.Categories = CategorizeRecords(records, p.categoryField)
		p.metrics.ObserveCategories(s.Kind, p.categoryField, summary.Categories)
	}

	p.logger.Info("batch validated",
		"kind", s.Kind, "total", summary.Total, "valid", summary.Valid, "invalid", summary.Invalid)
	return summary, nil
}

func fieldsOf(errs []validation.ValidationError) []string {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}
