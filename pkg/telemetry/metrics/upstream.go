package metrics

import (
	"strconv"
	"time"

	"bizbridge/gateway/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

var upstreamDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

// UpstreamMetrics tracks traffic to the backend.
//
// Metrics:
//   - bizbridge_upstream_calls_total: calls by operation, account and status code
//   - bizbridge_upstream_call_duration_seconds: call latency by operation
//   - bizbridge_token_refreshes_total: bootstrap attempts by account and outcome
//   - bizbridge_token_refresh_duration_seconds: bootstrap latency
//   - bizbridge_account_rotations_total: switches to another account by reason
type UpstreamMetrics struct {
	calls           *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	rotations       *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_calls_total",
				Help:      "Total number of backend calls",
			},
			[]string{"op", "account", "code"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_call_duration_seconds",
				Help:      "Backend call latency in seconds",
				Buckets:   upstreamDurationBuckets,
			},
			[]string{"op"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "token_refreshes_total",
				Help:      "Total number of bearer token refreshes",
			},
			[]string{"account", "outcome"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "token_refresh_duration_seconds",
				Help:      "Bearer token refresh latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "account_rotations_total",
				Help:      "Total number of switches to another account",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(um.calls, um.callDuration, um.refreshes, um.refreshDuration, um.rotations)
	return um
}

// RecordCall records one backend call. A zero status is reported as "error".
func (um *UpstreamMetrics) RecordCall(op, account string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	um.calls.WithLabelValues(op, account, code).Inc()
	um.callDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRefresh records one token refresh.
func (um *UpstreamMetrics) RecordRefresh(account string, ok bool, duration time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	um.refreshes.WithLabelValues(account, outcome).Inc()
	um.refreshDuration.Observe(duration.Seconds())
}

// RecordRotation records one account switch.
func (um *UpstreamMetrics) RecordRotation(reason string) {
	um.rotations.WithLabelValues(reason).Inc()
}
