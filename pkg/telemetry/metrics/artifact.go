package metrics

import (
	"bizbridge/gateway/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ArtifactMetrics tracks generated files.
//
// Metrics:
//   - bizbridge_artifacts_saved_total: files written, by mime type
//   - bizbridge_artifact_bytes_total: bytes written
//   - bizbridge_artifact_retries_total: empty-answer retries by outcome
//   - bizbridge_artifacts_pruned_total: files removed by retention
type ArtifactMetrics struct {
	saved   *prometheus.CounterVec
	bytes   prometheus.Counter
	retries *prometheus.CounterVec
	pruned  prometheus.Counter
}

// NewArtifactMetrics creates and registers artifact metrics.
func NewArtifactMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ArtifactMetrics {
	am := &ArtifactMetrics{
		saved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "artifacts_saved_total",
				Help:      "Total number of generated files saved",
			},
			[]string{"mime_type"},
		),
		bytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "artifact_bytes_total",
				Help:      "Total bytes of generated files saved",
			},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "artifact_retries_total",
				Help:      "Total number of retries after an answer without files",
			},
			[]string{"outcome"},
		),
		pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "artifacts_pruned_total",
				Help:      "Total number of generated files removed by retention",
			},
		),
	}

	registry.MustRegister(am.saved, am.bytes, am.retries, am.pruned)
	return am
}

// RecordSaved records one saved file.
func (am *ArtifactMetrics) RecordSaved(mimeType string, size int) {
	am.saved.WithLabelValues(mimeType).Inc()
	am.bytes.Add(float64(size))
}
