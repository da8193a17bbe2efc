package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics holds the Prometheus instruments for one analysis run.
// A `/metrics` endpoint is intentionally not wired here — the CLI is a
// one-shot batch tool, not a server — but Registry is exported so a
// caller embedding this package can expose one.
type PipelineMetrics struct {
	Registry *prometheus.Registry

	FilesParsed     prometheus.Counter
	ParseErrors     prometheus.Counter
	PipelineSeconds prometheus.Histogram
	SnapshotBytes   prometheus.Gauge
}

// durationBucketBoundaries covers 10ms to 600s, spanning a single-file
// static check up to a multi-minute full-history pipeline run.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// NewPipelineMetrics registers one independent Prometheus registry with the
// counters/histograms the pipeline records.
func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	m := &PipelineMetrics{
		Registry: registry,
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotspots_files_parsed_total",
			Help: "Total number of source files successfully parsed.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotspots_parse_errors_total",
			Help: "Total number of files that failed to parse.",
		}),
		PipelineSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hotspots_pipeline_duration_seconds",
			Help:    "Wall-clock duration of a full analysis run.",
			Buckets: durationBucketBoundaries,
		}),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hotspots_snapshot_size_bytes",
			Help: "Compressed size of the most recently written snapshot.",
		}),
	}

	registry.MustRegister(m.FilesParsed, m.ParseErrors, m.PipelineSeconds, m.SnapshotBytes)

	return m
}

// Handler returns an http.Handler serving this registry's scrape endpoint,
// for callers that embed the pipeline in a long-running process.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
