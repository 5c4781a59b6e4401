package metrics

import (
	"time"

	"bizbridge/gateway/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// requestDurationBuckets span quick text answers to long image generations.
var requestDurationBuckets = []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// RequestMetrics tracks chat completions served to clients.
//
// Metrics:
//   - bizbridge_requests_total: completions by model, mode and status
//   - bizbridge_request_duration_seconds: completion latency
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of chat completions",
			},
			[]string{"model", "mode", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Chat completion latency in seconds",
				Buckets:   requestDurationBuckets,
			},
			[]string{"model", "mode"},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration)
	return rm
}

// Record records one completion.
func (rm *RequestMetrics) Record(model, mode, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(model, mode, status).Inc()
	rm.requestDuration.WithLabelValues(model, mode).Observe(duration.Seconds())
}
