// Package observability builds the service logger and Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for evaluations and HTTP traffic.
type Metrics struct {
	Assessments      *prometheus.CounterVec   // labels: category={safe,moderate,critical}
	ZoneLookups      *prometheus.CounterVec   // labels: result={matched,default}
	ValidationErrors *prometheus.CounterVec   // labels: field
	IndexValue       prometheus.Histogram
	BatchSize        prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec   // labels: route, code
	HTTPDuration     *prometheus.HistogramVec // labels: route
	ZoneTableRows    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safestruct",
			Name:      "assessments_total",
			Help:      "Structural risk evaluations by resulting category.",
		}, []string{"category"}),
		ZoneLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safestruct",
			Name:      "zone_lookups_total",
			Help:      "Seismic zone lookups by outcome.",
		}, []string{"result"}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safestruct",
			Name:      "validation_errors_total",
			Help:      "Rejected evaluation inputs by offending field.",
		}, []string{"field"}),
		IndexValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safestruct",
			Name:      "irs_index",
			Help:      "Distribution of computed Structural Risk Index values.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 125, 150},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safestruct",
			Name:      "batch_size",
			Help:      "Number of structures per batch or spreadsheet import.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safestruct",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safestruct",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
		ZoneTableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "safestruct",
			Name:      "zone_table_rows",
			Help:      "Rows in the loaded seismic zone table.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Assessments,
			m.ZoneLookups,
			m.ValidationErrors,
			m.IndexValue,
			m.BatchSize,
			m.HTTPRequests,
			m.HTTPDuration,
			m.ZoneTableRows,
		)
	}
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many
// as they need.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(nil)
}
