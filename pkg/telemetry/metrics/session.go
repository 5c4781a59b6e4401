package metrics

import (
	"bizbridge/gateway/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks the conversation session cache.
//
// Metrics:
//   - bizbridge_session_cache_lookups_total: lookups by result (hit, miss)
//   - bizbridge_session_cache_entries: stored entries, including expired ones
//   - bizbridge_session_cache_swept_total: expired entries removed by sweeps
type SessionMetrics struct {
	lookups *prometheus.CounterVec
	entries prometheus.Gauge
	swept   prometheus.Counter
}

// NewSessionMetrics creates and registers session cache metrics.
func NewSessionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SessionMetrics {
	sm := &SessionMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "session_cache_lookups_total",
				Help:      "Total number of conversation cache lookups",
			},
			[]string{"result"},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "session_cache_entries",
				Help:      "Current number of conversation cache entries",
			},
		),
		swept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "session_cache_swept_total",
				Help:      "Total number of expired entries removed",
			},
		),
	}

	registry.MustRegister(sm.lookups, sm.entries, sm.swept)
	return sm
}

// RecordLookup records a hit or a miss.
func (sm *SessionMetrics) RecordLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	sm.lookups.WithLabelValues(result).Inc()
}
