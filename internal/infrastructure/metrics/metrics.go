// Package metrics exposes the portal's Prometheus metrics on a private registry.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dealerportal/backend/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Create stages reported with create failures
const (
	StageValidate = "validate"
	StageScope    = "scope"
	StagePricing  = "pricing"
	StageHeader   = "header"
	StageItems    = "items"
	StageCommit   = "commit"
)

// Compensation outcomes
const (
	OutcomeDeleted = "deleted"
	OutcomeFailed  = "failed"
)

// Metrics holds every portal collector
type Metrics struct {
	registry *prometheus.Registry

	documentsCreated *prometheus.CounterVec
	documentAmount   *prometheus.CounterVec
	createFailures   *prometheus.CounterVec
	compensations    *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	fetchErrors      *prometheus.CounterVec
	staleFetches     *prometheus.CounterVec
	authEvents       *prometheus.CounterVec
	workspaces       prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with a fresh registry
func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		documentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "documents_created_total",
			Help:      "Orders and quotes created, by kind.",
		}, []string{"kind"}),
		documentAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "documents_amount_total",
			Help:      "Sum of created document totals including tax, by kind.",
		}, []string{"kind"}),
		createFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "document_create_failures_total",
			Help:      "Failed document creations, by kind and stage.",
		}, []string{"kind", "stage"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "document_compensations_total",
			Help:      "Compensating header deletes after an item insert failed, by outcome.",
		}, []string{"kind", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "list_fetch_duration_seconds",
			Help:      "Latency of hook list fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "list_fetch_errors_total",
			Help:      "Failed hook list fetches.",
		}, []string{"kind"}),
		staleFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "list_fetch_stale_total",
			Help:      "Fetch results dropped because a newer fetch started.",
		}, []string{"kind"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "auth_events_total",
			Help:      "Auth state changes seen by session stores.",
		}, []string{"type"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "open_workspaces",
			Help:      "Portal workspaces currently held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documentsCreated,
		m.documentAmount,
		m.createFailures,
		m.compensations,
		m.fetchDuration,
		m.fetchErrors,
		m.staleFetches,
		m.authEvents,
		m.workspaces,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// DocumentCreated counts a successful create and its total
func (m *Metrics) DocumentCreated(kind string, total float64) {
	if m == nil {
		return
	}
	m.documentsCreated.WithLabelValues(kind).Inc()
	m.documentAmount.WithLabelValues(kind).Add(total)
}

// CreateFailed counts a failed create at stage
func (m *Metrics) CreateFailed(kind, stage string) {
	if m == nil {
		return
	}
	m.createFailures.WithLabelValues(kind, stage).Inc()
}

// Compensated counts a compensating delete
func (m *Metrics) Compensated(kind, outcome string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(kind, outcome).Inc()
}

// FetchObserved records a list fetch; err marks it failed
func (m *Metrics) FetchObserved(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.fetchErrors.WithLabelValues(kind).Inc()
	}
}

// FetchDropped counts a stale fetch result
func (m *Metrics) FetchDropped(kind string) {
	if m == nil {
		return
	}
	m.staleFetches.WithLabelValues(kind).Inc()
}

// AuthEvent counts an auth state change
func (m *Metrics) AuthEvent(eventType string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(eventType).Inc()
}

// WorkspacesOpen sets the open workspace gauge
func (m *Metrics) WorkspacesOpen(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}

// HTTPObserved records one served request
func (m *Metrics) HTTPObserved(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
