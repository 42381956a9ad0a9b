// Package metrics exposes the Prometheus instruments of the storetrainer backend.
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

// Outcomes recorded for AI calls.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Manager owns a registry and every metric registered on it.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	aiCalls      *prometheus.CounterVec
	aiFallbacks  *prometheus.CounterVec
	aiLatency    *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	practiceSessions prometheus.Gauge
	reactions        *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewManager creates a metrics manager. Each manager has its own registry so
// tests can build as many as they like.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "storetrainer",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.aiCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ai",
		Name:      "calls_total",
		Help:      "Chat-completion calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	m.aiFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ai",
		Name:      "fallbacks_total",
		Help:      "Fallback results served instead of a model reply, by reason.",
	}, []string{"operation", "reason"})

	m.aiLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "ai",
		Name:      "call_duration_seconds",
		Help:      "Chat-completion round trip time.",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status_code"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration.",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.practiceSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "practice",
		Name:      "sessions_active",
		Help:      "Open practice websocket sessions.",
	})

	m.reactions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "community",
		Name:      "reaction_toggles_total",
		Help:      "Reaction toggles by reaction type.",
	}, []string{"reaction"})
}

// RecordAICall records one chat-completion attempt
func (m *Manager) RecordAICall(operation, outcome string, d time.Duration) {
	m.aiCalls.WithLabelValues(operation, outcome).Inc()
	m.aiLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAIFallback records that a fallback result was served
func (m *Manager) RecordAIFallback(operation, reason string) {
	m.aiFallbacks.WithLabelValues(operation, reason).Inc()
}

// RecordHTTPRequest records one served HTTP request
func (m *Manager) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// PracticeSessionOpened increments the active practice session gauge
func (m *Manager) PracticeSessionOpened() { m.practiceSessions.Inc() }

// PracticeSessionClosed decrements the active practice session gauge
func (m *Manager) PracticeSessionClosed() { m.practiceSessions.Dec() }

// RecordReaction counts a reaction toggle
func (m *Manager) RecordReaction(reaction string) {
	m.reactions.WithLabelValues(reaction).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
