package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal  *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	TokensUsed     prometheus.Histogram
	CacheHits      prometheus.Counter
	FeedbackTotal  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// NewMetrics builds a metrics set on its own registry, so tests can create
// several without collector collisions.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitrine",
			Name:      "chat_requests_total",
			Help:      "Chat requests handled, by detected intent and outcome.",
		}, []string{"intent", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vitrine",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"stage"}),
		TokensUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vitrine",
			Name:      "context_tokens",
			Help:      "Tokens occupied by the assembled evidence window.",
			Buckets:   prometheus.LinearBuckets(0, 250, 12),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitrine",
			Name:      "response_cache_hits_total",
			Help:      "Chat responses served from the response cache.",
		}),
		FeedbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitrine",
			Name:      "feedback_total",
			Help:      "Feedback submissions, by rating.",
		}, []string{"rating"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitrine",
			Name:      "active_sessions",
			Help:      "Conversation sessions currently held in memory.",
		}),
	}
	registry.MustRegister(
		m.RequestsTotal,
		m.StageDuration,
		m.TokensUsed,
		m.CacheHits,
		m.FeedbackTotal,
		m.ActiveSessions,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
