package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and background loops.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	transitionsTotal        *prometheus.CounterVec
	sideEffectFailuresTotal *prometheus.CounterVec
	notificationsTotal      *prometheus.CounterVec
	syncAttemptsTotal       *prometheus.CounterVec
	syncAttemptDuration     prometheus.Histogram
	syncRetriesScheduled    prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "land_office",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "land_office",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "land_office",
				Name:      "workflow_transitions_total",
				Help:      "Total number of workflow transitions by action, entity kind, and outcome.",
			},
			[]string{"action", "kind", "outcome"},
		),
		sideEffectFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "land_office",
				Name:      "side_effect_failures_total",
				Help:      "Total number of swallowed audit/activity/notification failures by effect.",
			},
			[]string{"effect"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "land_office",
				Name:      "notifications_created_total",
				Help:      "Total number of in-app notification rows created by trigger.",
			},
			[]string{"trigger"},
		),
		syncAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "land_office",
				Name:      "sync_attempts_total",
				Help:      "Total number of external sync attempts by outcome.",
			},
			[]string{"outcome"},
		),
		syncAttemptDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "land_office",
				Name:      "sync_attempt_duration_seconds",
				Help:      "External sync call duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		syncRetriesScheduled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "land_office",
				Name:      "sync_retries_scheduled_total",
				Help:      "Total number of sync retries scheduled.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.transitionsTotal,
		m.sideEffectFailuresTotal,
		m.notificationsTotal,
		m.syncAttemptsTotal,
		m.syncAttemptDuration,
		m.syncRetriesScheduled,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncTransition(action string, kind string, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(normalizeLabel(action), normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncSideEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.sideEffectFailuresTotal.WithLabelValues(normalizeLabel(effect)).Inc()
}

func (m *Metrics) AddNotificationsCreated(trigger string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.notificationsTotal.WithLabelValues(normalizeLabel(trigger)).Add(float64(count))
}

func (m *Metrics) IncSyncAttempt(outcome string) {
	if m == nil {
		return
	}
	m.syncAttemptsTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) ObserveSyncDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.syncAttemptDuration.Observe(seconds)
}

func (m *Metrics) IncSyncRetryScheduled() {
	if m == nil {
		return
	}
	m.syncRetriesScheduled.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
