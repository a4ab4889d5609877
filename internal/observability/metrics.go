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

// Metrics stores Prometheus collectors used by the API and dispatcher flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDuration          *prometheus.HistogramVec
	paymentsInitiatedTotal       *prometheus.CounterVec
	paymentSettlementsTotal      *prometheus.CounterVec
	webhookEventsTotal           *prometheus.CounterVec
	notificationsDispatchedTotal *prometheus.CounterVec
	dispatcherInflight           *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketplace",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "marketplace",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		paymentsInitiatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketplace",
				Name:      "payments_initiated_total",
				Help:      "Total number of payment intents created, by currency.",
			},
			[]string{"currency"},
		),
		paymentSettlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketplace",
				Name:      "payment_settlements_total",
				Help:      "Total number of transaction settlements by terminal status.",
			},
			[]string{"status"},
		),
		webhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketplace",
				Name:      "webhook_events_total",
				Help:      "Total number of processor webhook events by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		notificationsDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketplace",
				Name:      "notifications_dispatched_total",
				Help:      "Total number of notification messages handled by the dispatcher.",
			},
			[]string{"queue", "outcome"},
		),
		dispatcherInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "marketplace",
				Name:      "dispatcher_inflight",
				Help:      "Current number of in-flight dispatcher operations grouped by queue.",
			},
			[]string{"queue"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.paymentsInitiatedTotal,
		m.paymentSettlementsTotal,
		m.webhookEventsTotal,
		m.notificationsDispatchedTotal,
		m.dispatcherInflight,
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

func (m *Metrics) IncPaymentInitiated(currency string) {
	if m == nil {
		return
	}
	m.paymentsInitiatedTotal.WithLabelValues(normalizeLabel(currency)).Inc()
}

func (m *Metrics) IncPaymentSettled(status string) {
	if m == nil {
		return
	}
	m.paymentSettlementsTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) IncWebhookEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.webhookEventsTotal.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncNotificationDispatched(queue, outcome string) {
	if m == nil {
		return
	}
	m.notificationsDispatchedTotal.WithLabelValues(normalizeLabel(queue), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncDispatcherInFlight(queue string) {
	if m == nil {
		return
	}
	m.dispatcherInflight.WithLabelValues(normalizeLabel(queue)).Inc()
}

func (m *Metrics) DecDispatcherInFlight(queue string) {
	if m == nil {
		return
	}
	m.dispatcherInflight.WithLabelValues(normalizeLabel(queue)).Dec()
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
