// Package metrics counts validation outcomes on a private Prometheus
// registry. Results are exported as a node_exporter textfile rather than
// served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"clinvalidate/internal/schema"
)

// Metrics holds the validation collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	records    *prometheus.CounterVec
	violations *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	categories *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinvalidate_records_total",
			Help: "Records validated, by entity kind and outcome.",
		}, []string{"kind", "outcome"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinvalidate_violations_total",
			Help: "Validation errors reported, by entity kind and field.",
		}, []string{"kind", "field"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinvalidate_batches_rejected_total",
			Help: "Batches aborted by a structural or malformed input error.",
		}, []string{"kind"}),
		categories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "clinvalidate_category_records",
			Help: "Records per category label in the last batch.",
		}, []string{"kind", "field", "label"}),
	}
	m.registry.MustRegister(m.records, m.violations, m.rejected, m.categories)
	return m
}

// Registry exposes the underlying registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveResult records one record verdict and the fields it failed on
func (m *Metrics) ObserveResult(kind schema.Kind, valid bool, fields []string) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.records.WithLabelValues(string(kind), outcome).Inc()
	for _, f := range fields {
		m.violations.WithLabelValues(string(kind), f).Inc()
	}
}

// ObserveRejectedBatch records an aborted batch
func (m *Metrics) ObserveRejectedBatch(kind schema.Kind) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(string(kind)).Inc()
}

// ObserveCategories publishes the category counts of a batch
func (m *Metrics) ObserveCategories(kind schema.Kind, field string, counts map[string]int) {
	if m == nil {
		return
	}
	for label, n := range counts {
		m.categories.WithLabelValues(string(kind), field, label).Set(float64(n))
	}
}

// WriteTextfile writes the current values in text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
