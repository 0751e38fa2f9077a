package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpulse_http_requests_total",
		Help: "HTTP requests, labelled by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classpulse_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Observability records request metrics and an access log line per request.
func Observability(logger zerolog.Logger) fiber.Handler {
	accessLogger := logger.With().Str("component", "http").Logger()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := c.Route().Path
		status := c.Response().StatusCode()
		method := c.Method()

		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

		event := accessLogger.Info()
		if status >= fiber.StatusInternalServerError {
			event = accessLogger.Error()
		}
		correlationID, _ := c.Locals(CorrelationKey).(string)
		event.
			Str("method", method).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", elapsed).
			Str(CorrelationKey, correlationID).
			Msg("request handled")
		return err
	}
}
