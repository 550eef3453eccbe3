// Package metrics holds the Prometheus collectors for storefront upstream
// calls, operator notifications, bot traffic and voice sessions. HTTP server
// metrics live in the http middleware.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Notifications    *prometheus.CounterVec
	BotUpdates       *prometheus.CounterVec
	VoiceSessions    *prometheus.CounterVec
	Errors           *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// New builds an unregistered set of collectors. Tests use it with their own
// registry.
func New(namespace string) *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total upstream API requests by provider, operation and outcome.",
		}, []string{"provider", "op", "status"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency distribution for upstream API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "op"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_notifications_total",
			Help:      "Operator order notifications by outcome.",
		}, []string{"status"}),
		BotUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_updates_total",
			Help:      "Telegram updates processed by kind.",
		}, []string{"kind"}),
		VoiceSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_total",
			Help:      "Voice sessions by how they ended.",
		}, []string{"outcome"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors grouped by component.",
		}, []string{"component"}),
	}
}

// Collectors lists every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UpstreamRequests, m.UpstreamLatency, m.Notifications,
		m.BotUpdates, m.VoiceSessions, m.Errors,
	}
}

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		prometheus.MustRegister(metricsInstance.Collectors()...)
	})
	return metricsInstance
}

// ObserveUpstream records one upstream call. A nil receiver is a no-op so
// components can run without metrics.
func (m *Metrics) ObserveUpstream(provider, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.UpstreamRequests.WithLabelValues(provider, op, status).Inc()
	m.UpstreamLatency.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// Notification counts an operator notification outcome (sent|failed|skipped).
func (m *Metrics) Notification(status string) { m.inc(func() *prometheus.CounterVec { return m.Notifications }, status) }

// BotUpdate counts a processed Telegram update by kind.
func (m *Metrics) BotUpdate(kind string) { m.inc(func() *prometheus.CounterVec { return m.BotUpdates }, kind) }

// VoiceSession counts a finished voice session by outcome.
func (m *Metrics) VoiceSession(outcome string) {
	m.inc(func() *prometheus.CounterVec { return m.VoiceSessions }, outcome)
}

// Error counts an error attributed to component.
func (m *Metrics) Error(component string) { m.inc(func() *prometheus.CounterVec { return m.Errors }, component) }

func (m *Metrics) inc(vec func() *prometheus.CounterVec, label string) {
	if m == nil {
		return
	}
	vec().WithLabelValues(label).Inc()
}
