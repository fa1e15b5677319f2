// Package metrics exposes Prometheus counters for parse activity.
//
// Metrics are registered on a private registry rather than the global
// default so that tests and multiple servers in one process do not collide.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/licor/internal/core"
)

const namespace = "licor"

// Sources label where a parse was requested from.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// Metrics holds the parse collectors and the registry they belong to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FilesParsed     *prometheus.CounterVec
	ParseErrors     *prometheus.CounterVec
	ParseDuration   *prometheus.HistogramVec
	RowsParsed      prometheus.Counter
	FallbackColumns prometheus.Counter
	ActiveParses    prometheus.Gauge
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		FilesParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "files_total",
				Help:      "Total number of log files parsed",
			},
			[]string{"source", "status"},
		),

		ParseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "errors_total",
				Help:      "Total number of failed parses by error kind",
			},
			[]string{"kind"},
		),

		ParseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "duration_seconds",
				Help:      "Time spent parsing one log file",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"source"},
		),

		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "rows_total",
			Help:      "Total number of data rows parsed",
		}),

		FallbackColumns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "fallback_columns_total",
			Help:      "Total number of columns emitted as text after a conversion failure",
		}),

		ActiveParses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "active",
			Help:      "Number of parses in progress",
		}),
	}

	m.registry.MustRegister(
		m.FilesParsed,
		m.ParseErrors,
		m.ParseDuration,
		m.RowsParsed,
		m.FallbackColumns,
		m.ActiveParses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Start marks a parse as in progress and returns a function that records
// its outcome. Call the returned function exactly once.
func (m *Metrics) Start(source string) func(ds *core.Dataset, err error) {
	if m == nil {
		return func(*core.Dataset, error) {}
	}

	m.ActiveParses.Inc()
	start := time.Now()
	return func(ds *core.Dataset, err error) {
		m.ActiveParses.Dec()
		m.ParseDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

		if err != nil {
			m.FilesParsed.WithLabelValues(source, "error").Inc()
			m.ParseErrors.WithLabelValues(ErrorKind(err)).Inc()
			return
		}
		m.FilesParsed.WithLabelValues(source, "ok").Inc()
		if ds != nil {
			m.RowsParsed.Add(float64(ds.NumRows()))
			m.FallbackColumns.Add(float64(len(ds.FallbackColumns())))
		}
	}
}

// ErrorKind returns the label value for err: the parse error kind, or
// "file_too_large" and "other" for errors outside the pipeline.
func ErrorKind(err error) string {
	if errors.Is(err, core.ErrFileTooLarge) {
		return "file_too_large"
	}
	var pe *core.ParseError
	if errors.As(err, &pe) {
		return pe.Kind.String()
	}
	return "other"
}
