// Package metrics exposes Prometheus collectors for the report pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the pipeline collectors so tests can use their own registry.
type Metrics struct {
	registry *prometheus.Registry

	ReportsTotal       *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	PipelineDuration   prometheus.Histogram
	StatsErrors        prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factulist_reports_total",
				Help: "Reports generated, labelled by bias and credibility outcome.",
			},
			[]string{"bias_label", "credibility_label"},
		),
		ExtractionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factulist_extraction_failures_total",
				Help: "Inputs that degraded to a marker instead of article text.",
			},
			[]string{"input"},
		),
		PipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "factulist_pipeline_duration_seconds",
				Help:    "Time spent producing a report.",
				Buckets: prometheus.DefBuckets,
			},
		),
		StatsErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "factulist_source_stats_errors_total",
				Help: "Failed source statistics updates.",
			},
		),
	}

	reg.MustRegister(m.ReportsTotal, m.ExtractionFailures, m.PipelineDuration, m.StatsErrors)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
