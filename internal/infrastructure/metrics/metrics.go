// Package metrics exposes Prometheus collectors for the fetch, record and HTTP paths.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream
	fetchFailures *prometheus.CounterVec
	rowsParsed    *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	// Daily record
	recordRuns        *prometheus.CounterVec
	recordRows        prometheus.Gauge
	lastRecordSuccess prometheus.Gauge
	schedulerState    *prometheus.GaugeVec

	// HTTP
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, so several instances can coexist in tests.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lof_premium"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		fetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_failures_total",
			Help:      "Endpoint fetches that yielded no records, by failure kind",
		}, []string{"endpoint", "kind"}),
		rowsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rows_parsed_total",
			Help:      "Listing rows normalized into snapshots",
		}, []string{"endpoint"}),
		rowsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rows_skipped_total",
			Help:      "Listing rows dropped because they could not be mapped",
		}, []string{"endpoint"}),
		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one endpoint fetch including retries",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"endpoint"}),

		recordRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "record",
			Name:      "runs_total",
			Help:      "Daily record runs by result",
		}, []string{"result"}),
		recordRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "record",
			Name:      "rows_written",
			Help:      "Rows written by the last successful daily record",
		}),
		lastRecordSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "record",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful daily record",
		}),
		schedulerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "state",
			Help:      "1 for the scheduler's current state, 0 otherwise",
		}, []string{"state"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FetchFailed(endpoint, kind string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(endpoint, kind).Inc()
}

func (m *Metrics) RowsParsed(endpoint string, parsed, skipped int) {
	if m == nil {
		return
	}
	m.rowsParsed.WithLabelValues(endpoint).Add(float64(parsed))
	m.rowsSkipped.WithLabelValues(endpoint).Add(float64(skipped))
}

func (m *Metrics) FetchDuration(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordRun counts one daily record run. result is one of ok, skipped, locked, error.
func (m *Metrics) RecordRun(result string, written int, at time.Time) {
	if m == nil {
		return
	}
	m.recordRuns.WithLabelValues(result).Inc()
	if result == "ok" {
		m.recordRows.Set(float64(written))
		m.lastRecordSuccess.Set(float64(at.Unix()))
	}
}

// SetSchedulerState flips the state gauge so exactly one of states reads 1.
func (m *Metrics) SetSchedulerState(current string, states ...string) {
	if m == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		m.schedulerState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
