package config

import "time"

// Config is the root configuration structure for bizbridge.
// It contains all configuration sections for the gateway.
type Config struct {
	// Server contains the inbound HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// CORS contains cross-origin settings for the OpenAI-compatible surface.
	CORS CORSConfig `yaml:"cors"`

	// Upstream contains settings for talking to the Gemini Business backend.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Accounts is the ordered list of upstream identities.
	// Order is significant: round-robin selection walks it front to back.
	Accounts []AccountConfig `yaml:"accounts"`

	// Models maps public model aliases to upstream model identifiers.
	// An empty identifier lets the upstream choose.
	Models map[string]string `yaml:"models"`

	// Session contains conversation session cache settings.
	Session SessionConfig `yaml:"session"`

	// Orchestrator contains per-request retry settings.
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	// Artifacts contains storage settings for generated files.
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Telemetry contains logging, metrics and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains the inbound HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the address the server binds to.
	// Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// BaseURL is the externally reachable URL of this gateway.
	// Artifact URLs are built as {base_url}/images/{filename}.
	// Default: "http://127.0.0.1:8000"
	BaseURL string `yaml:"base_url"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 60s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	// Chat completions clear it; their length is bounded by the upstream
	// timeouts instead.
	// Default: 30m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive idle time.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ReadinessTimeout bounds each readiness check behind /ready.
	// Default: 2s
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"`

	// MaxHeaderBytes caps request header size.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps chat request bodies. Inline images make these large.
	// Default: 32MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. "*" allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists allowed HTTP methods.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists allowed request headers.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders lists headers exposed to the browser.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// UpstreamConfig contains settings for the Gemini Business backend.
type UpstreamConfig struct {
	// AuthBaseURL is the web origin that issues signing material.
	// Default: "https://business.gemini.google"
	AuthBaseURL string `yaml:"auth_base_url"`

	// APIBaseURL is the discoveryengine API host.
	// Default: "https://biz-discoveryengine.googleapis.com"
	APIBaseURL string `yaml:"api_base_url"`

	// Proxy is an optional outbound HTTP(S) proxy URL.
	Proxy string `yaml:"proxy"`

	// Timeout bounds one upstream HTTP call end to end.
	// Default: 600s
	Timeout time.Duration `yaml:"timeout"`

	// ConnectTimeout bounds TCP connection establishment.
	// Default: 60s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// InsecureSkipVerify disables TLS verification for upstream calls.
	// Only useful behind intercepting proxies.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// UserAgent is the browser user-agent presented upstream.
	UserAgent string `yaml:"user_agent"`

	// LanguageCode is sent with every answer request.
	// Default: "zh-CN"
	LanguageCode string `yaml:"language_code"`

	// TimeZone is sent as user metadata with every answer request.
	// Default: "Asia/Shanghai"
	TimeZone string `yaml:"time_zone"`

	// MaxIdleConns is the total idle connection pool size.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host idle connection pool size.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout closes idle pooled connections.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// AccountConfig is one upstream identity as written in the config file.
type AccountConfig struct {
	// Name identifies the account in logs and chat lookups.
	Name string `yaml:"name"`

	// ConfigID is the widget configuration identifier.
	ConfigID string `yaml:"config_id"`

	// Cookies is the raw cookie header. Must contain __Secure-C_SES.
	Cookies string `yaml:"cookies"`

	// Csesidx is the session index used in assertion claims.
	Csesidx string `yaml:"csesidx"`

	// ProjectID is the project used for file downloads.
	ProjectID string `yaml:"project_id"`
}

// SessionConfig contains conversation session cache settings.
type SessionConfig struct {
	// TTL is how long an upstream session is reused for a conversation.
	// Default: 300s
	TTL time.Duration `yaml:"ttl"`

	// SweepSchedule is a cron expression for purging expired cache entries.
	// Default: "*/10 * * * *"
	SweepSchedule string `yaml:"sweep_schedule"`

	// ChatRegistrySize bounds the chat_id to account lookup table.
	// Default: 10000
	ChatRegistrySize int `yaml:"chat_registry_size"`
}

// OrchestratorConfig contains per-request retry settings.
type OrchestratorConfig struct {
	// SessionRetries is the number of extra session-create attempts
	// made on other accounts. Zero disables rotation.
	// Default: 2
	SessionRetries *int `yaml:"session_retries"`

	// DisableArtifactRetry turns off the whole-turn retry that runs
	// when the upstream produced no generated files.
	// Default: false
	DisableArtifactRetry bool `yaml:"disable_artifact_retry"`

	// ImageFetchConcurrency bounds concurrent remote image downloads.
	// Default: 4
	ImageFetchConcurrency int `yaml:"image_fetch_concurrency"`

	// ImageFetchTimeout bounds one remote image download.
	// Default: 30s
	ImageFetchTimeout time.Duration `yaml:"image_fetch_timeout"`
}

// ArtifactsConfig contains storage settings for generated files.
type ArtifactsConfig struct {
	// Dir is where generated files are written and served from.
	// Default: "images"
	Dir string `yaml:"dir"`

	// Catalog selects where artifact records are kept.
	Catalog CatalogConfig `yaml:"catalog"`

	// Retention controls pruning of old artifacts.
	Retention RetentionConfig `yaml:"retention"`
}

// CatalogConfig selects the artifact catalog backend.
type CatalogConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	// Default: "data/artifacts.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig controls pruning of old artifacts.
type RetentionConfig struct {
	// MaxAge is how long artifacts are kept. Zero keeps them forever.
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a cron expression for the pruning job.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// DisableRedaction turns off masking of cookies and bearer tokens.
	DisableRedaction bool `yaml:"disable_redaction"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "bizbridge"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces sampled, 0.0 to 1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "bizbridge"
	ServiceName string `yaml:"service_name"`
}

// SessionRetryBudget returns the configured extra session-create attempts.
func (o OrchestratorConfig) SessionRetryBudget() int {
	if o.SessionRetries == nil {
		return DefaultSessionRetries
	}
	return *o.SessionRetries
}
