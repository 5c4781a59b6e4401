package metrics

import (
	"sync"
	"time"

	"bizbridge/gateway/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// maxModelLabels bounds distinct model label values.
const maxModelLabels = 64

// Collector owns every metric the gateway exports and the registry they
// live in. All methods are safe on a nil receiver.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	sessionMetrics  *SessionMetrics
	artifactMetrics *ArtifactMetrics

	models *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics. If registry
// is nil a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		requestMetrics:  NewRequestMetrics(cfg, registry),
		upstreamMetrics: NewUpstreamMetrics(cfg, registry),
		sessionMetrics:  NewSessionMetrics(cfg, registry),
		artifactMetrics: NewArtifactMetrics(cfg, registry),
		models:          NewCardinalityLimiter(maxModelLabels),
	}
}

func (c *Collector) active() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records a finished chat completion.
//
// Parameters:
//   - model: client-facing model alias
//   - mode: "stream" or "blocking"
//   - status: "success" or an error class such as "upstream_error"
//   - duration: time from request receipt to the last byte
func (c *Collector) RecordRequest(model, mode, status string, duration time.Duration) {
	if !c.active() {
		return
	}
	if !c.models.Allow(model) {
		model = "other"
	}
	c.requestMetrics.Record(model, mode, status, duration)
}

// RecordUpstreamCall records one HTTP call to the backend.
//
// Parameters:
//   - op: operation name, e.g. "create_session", "stream_answer"
//   - account: account the call was made as
//   - status: HTTP status, or 0 when no response was received
//   - duration: round trip time
func (c *Collector) RecordUpstreamCall(op, account string, status int, duration time.Duration) {
	if !c.active() {
		return
	}
	c.upstreamMetrics.RecordCall(op, account, status, duration)
}

// RecordTokenRefresh records a signing-material bootstrap attempt.
func (c *Collector) RecordTokenRefresh(account string, err error, duration time.Duration) {
	if !c.active() {
		return
	}
	c.upstreamMetrics.RecordRefresh(account, err == nil, duration)
}

// RecordRotation records a switch to another account.
// reason is "session_create" or "artifact_retry".
func (c *Collector) RecordRotation(reason string) {
	if !c.active() {
		return
	}
	c.upstreamMetrics.RecordRotation(reason)
}

// RecordSessionLookup records a conversation cache lookup.
func (c *Collector) RecordSessionLookup(hit bool) {
	if !c.active() {
		return
	}
	c.sessionMetrics.RecordLookup(hit)
}

// UpdateSessionEntries sets the current conversation cache size.
func (c *Collector) UpdateSessionEntries(n int) {
	if !c.active() {
		return
	}
	c.sessionMetrics.entries.Set(float64(n))
}

// RecordSessionSweep records how many expired entries a sweep removed.
func (c *Collector) RecordSessionSweep(removed int) {
	if !c.active() {
		return
	}
	c.sessionMetrics.swept.Add(float64(removed))
}

// RecordArtifactSaved records a generated file written to disk.
func (c *Collector) RecordArtifactSaved(mimeType string, size int) {
	if !c.active() {
		return
	}
	c.artifactMetrics.RecordSaved(mimeType, size)
}

// RecordArtifactRetry records the outcome of a whole-turn retry after an
// answer came back without generated files.
// outcome is "recovered", "empty" or "failed".
func (c *Collector) RecordArtifactRetry(outcome string) {
	if !c.active() {
		return
	}
	c.artifactMetrics.retries.WithLabelValues(outcome).Inc()
}

// RecordArtifactsPruned records files removed by retention.
func (c *Collector) RecordArtifactsPruned(n int) {
	if !c.active() {
		return
	}
	c.artifactMetrics.pruned.Add(float64(n))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values admitted for a
// label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already admitted or can still be.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
