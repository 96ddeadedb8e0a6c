package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Catalog metrics
	CatalogSize        prometheus.Gauge
	CatalogLoadsTotal  *prometheus.CounterVec
	CatalogRecordDrops *prometheus.CounterVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Conversation pipeline metrics
	MessagesTotal       *prometheus.CounterVec
	ShortcutHitsTotal   prometheus.Counter
	ModelCallsTotal     *prometheus.CounterVec
	ModelCallDuration   *prometheus.HistogramVec
	ModelFallbacksTotal *prometheus.CounterVec
	SuggestionsRecorded prometheus.Counter

	// Session metrics
	ActiveSessions   prometheus.Gauge
	SessionEvictions prometheus.Counter

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterKeys    *prometheus.GaugeVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Outbound delivery metrics
	OutboundTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		CatalogSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "cursobot_catalog_courses",
				Help: "Number of normalized courses currently loaded",
			},
		),

		CatalogLoadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_catalog_loads_total",
				Help: "Catalog load attempts by source and status",
			},
			[]string{"source", "status"}, // source: file, url, snapshot; status: success, degraded
		),

		CatalogRecordDrops: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_catalog_record_drops_total",
				Help: "Catalog list entries dropped during normalization by field",
			},
			[]string{"field"},
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cursobot_webhook_duration_seconds",
				Help:    "Inbound event processing duration in seconds by channel",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"channel"},
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_webhook_requests_total",
				Help: "Inbound webhook events by channel and status",
			},
			[]string{"channel", "status"}, // status: success, error, discarded
		),

		MessagesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_messages_total",
				Help: "Handled conversation turns by outcome",
			},
			[]string{"outcome"}, // outcome: shortcut, model, failed, discarded
		),

		ShortcutHitsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "cursobot_shortcut_hits_total",
				Help: "Replies served by the deterministic shortcut path",
			},
		),

		ModelCallsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_model_calls_total",
				Help: "Model calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error, timeout
		),

		ModelCallDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cursobot_model_call_duration_seconds",
				Help:    "Model call duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
			},
			[]string{"provider"},
		),

		ModelFallbacksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_model_fallbacks_total",
				Help: "Provider fallbacks by source and target provider",
			},
			[]string{"from", "to"},
		),

		SuggestionsRecorded: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "cursobot_suggestions_recorded_total",
				Help: "Registration-link suggestions extracted from model replies",
			},
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "cursobot_active_sessions",
				Help: "Conversations currently tracked in the session store",
			},
		),

		SessionEvictions: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "cursobot_session_evictions_total",
				Help: "Sessions evicted by the idle sweep",
			},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_rate_limiter_dropped_total",
				Help: "Requests dropped by rate limiter type",
			},
			[]string{"limiter_type"}, // limiter_type: user, model
		),

		RateLimiterKeys: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cursobot_rate_limiter_active_keys",
				Help: "Keys currently tracked per rate limiter type",
			},
			[]string{"limiter_type"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_http_errors_total",
				Help: "HTTP errors by type and endpoint",
			},
			[]string{"error_type", "endpoint"},
		),

		OutboundTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursobot_outbound_messages_total",
				Help: "Outbound sends by channel and status",
			},
			[]string{"channel", "status"},
		),
	}

	return m
}

// RecordCatalogLoad records a catalog load attempt.
func (m *Metrics) RecordCatalogLoad(source, status string, size int) {
	m.CatalogLoadsTotal.WithLabelValues(source, status).Inc()
	m.CatalogSize.Set(float64(size))
}

// RecordRecordDrop records dropped list entries during normalization.
func (m *Metrics) RecordRecordDrop(field string, n int) {
	if n <= 0 {
		return
	}
	m.CatalogRecordDrops.WithLabelValues(field).Add(float64(n))
}

// RecordWebhook records an inbound event.
func (m *Metrics) RecordWebhook(channel, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(channel, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(channel).Observe(duration)
}

// RecordMessage records a handled conversation turn.
func (m *Metrics) RecordMessage(outcome string) {
	m.MessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordShortcutHit records a deterministic shortcut reply.
func (m *Metrics) RecordShortcutHit() {
	m.ShortcutHitsTotal.Inc()
	m.RecordMessage("shortcut")
}

// RecordModelCall records a model call with its duration.
func (m *Metrics) RecordModelCall(provider, status string, duration float64) {
	m.ModelCallsTotal.WithLabelValues(provider, status).Inc()
	m.ModelCallDuration.WithLabelValues(provider).Observe(duration)
}

// RecordModelFallback records a provider fallback.
func (m *Metrics) RecordModelFallback(from, to string) {
	m.ModelFallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordSuggestion records an extracted registration-link suggestion.
func (m *Metrics) RecordSuggestion() {
	m.SuggestionsRecorded.Inc()
}

// SetActiveSessions updates the tracked session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// RecordSessionEvictions adds evicted sessions to the counter.
func (m *Metrics) RecordSessionEvictions(n int) {
	if n <= 0 {
		return
	}
	m.SessionEvictions.Add(float64(n))
}

// RecordRateLimiterDrop records a request dropped by rate limiter.
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterKeys updates the tracked key count for a limiter type.
func (m *Metrics) SetRateLimiterKeys(limiterType string, n int) {
	m.RateLimiterKeys.WithLabelValues(limiterType).Set(float64(n))
}

// RecordHTTPError records HTTP error metrics.
func (m *Metrics) RecordHTTPError(errorType, endpoint string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordOutbound records an outbound send.
func (m *Metrics) RecordOutbound(channel, status string) {
	m.OutboundTotal.WithLabelValues(channel, status).Inc()
}
