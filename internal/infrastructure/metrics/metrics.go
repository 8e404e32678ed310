// Package metrics exposes Prometheus collectors for the background sweep,
// the conversion pipeline and the HTTP surface.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "o2c"

// Low-cardinality reasons for failed scheduler items
const (
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonConflict         = "conflict"
	ReasonBusinessRule     = "business_rule"
	ReasonPersistence      = "persistence"
	ReasonUnknown          = "unknown"
)

// NewRegistry returns a registry carrying the Go runtime and process
// collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// SchedulerMetrics tracks background jobs
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobErrors   *prometheus.CounterVec
	items       *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

// NewSchedulerMetrics creates and registers the scheduler collectors
func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduler job runs by name.",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduler job latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_errors_total",
			Help:      "Scheduler job errors by reason.",
		}, []string{"job", "reason"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "items_total",
			Help:      "Items handled by scheduler jobs by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.jobRuns, m.jobDuration, m.jobErrors, m.items, m.lastSuccess)
	return m
}

// ObserveRun records one run of job. A nil receiver is a no-op.
func (m *SchedulerMetrics) ObserveRun(job string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
	m.jobDuration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		m.jobErrors.WithLabelValues(job, ClassifyError(err)).Inc()
		return
	}
	m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// AddItems counts items by outcome
func (m *SchedulerMetrics) AddItems(job, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(job, outcome).Add(float64(n))
}

// ClassifyError maps an error onto a low-cardinality reason label
func ClassifyError(err error) string {
	var de *shared.DomainError
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonDeadlineExceeded
	case errors.As(err, &de):
		switch de.Code {
		case shared.CodeConcurrencyConflict:
			return ReasonConflict
		case shared.CodePersistence:
			return ReasonPersistence
		default:
			return ReasonBusinessRule
		}
	default:
		return ReasonUnknown
	}
}

// ConversionMetrics counts conversion pipeline outcomes. It satisfies the
// conversion service's observer interface.
type ConversionMetrics struct {
	conversions *prometheus.CounterVec
}

// NewConversionMetrics creates and registers the conversion counter
func NewConversionMetrics(reg prometheus.Registerer) *ConversionMetrics {
	m := &ConversionMetrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Document conversions by kind and outcome (created, replayed, conflict, failed).",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.conversions)
	return m
}

// ObserveConversion counts one conversion attempt
func (m *ConversionMetrics) ObserveConversion(kind, outcome string) {
	m.conversions.WithLabelValues(kind, outcome).Inc()
}

// HTTPMetrics tracks request counts and latency by route
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics creates and registers the HTTP collectors
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight)
	return m
}

// Begin marks a request as in flight and returns the function that records
// its completion
func (m *HTTPMetrics) Begin() func(method, route string, status int) {
	start := time.Now()
	m.inFlight.Inc()
	return func(method, route string, status int) {
		m.inFlight.Dec()
		m.requests.WithLabelValues(method, route, StatusClass(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// StatusClass groups a status code as 2xx, 3xx, 4xx or 5xx
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
