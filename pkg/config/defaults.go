package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress    = "127.0.0.1:8000"
	DefaultBaseURL          = "http://127.0.0.1:8000"
	DefaultReadTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 30 * time.Minute
	DefaultIdleTimeout      = 120 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultReadinessTimeout = 2 * time.Second
	DefaultMaxHeaderBytes   = 1048576 // 1MB
	DefaultMaxBodyBytes     = 32 << 20

	// CORS defaults
	DefaultCORSMaxAge = 3600

	// Upstream defaults
	DefaultAuthBaseURL         = "https://business.gemini.google"
	DefaultAPIBaseURL          = "https://biz-discoveryengine.googleapis.com"
	DefaultUpstreamTimeout     = 600 * time.Second
	DefaultConnectTimeout      = 60 * time.Second
	DefaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"
	DefaultLanguageCode        = "zh-CN"
	DefaultTimeZone            = "Asia/Shanghai"
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// Session defaults
	DefaultSessionTTL       = 300 * time.Second
	DefaultSweepSchedule    = "*/10 * * * *"
	DefaultChatRegistrySize = 10000

	// Orchestrator defaults
	DefaultSessionRetries        = 2
	DefaultImageFetchConcurrency = 4
	DefaultImageFetchTimeout     = 30 * time.Second

	// Artifact defaults
	DefaultArtifactsDir       = "images"
	DefaultCatalogBackend     = "memory"
	DefaultCatalogSQLitePath  = "data/artifacts.db"
	DefaultCatalogBusyTimeout = 5 * time.Second
	DefaultRetentionSchedule  = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "bizbridge"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultServiceName        = "bizbridge"
)

// DefaultModels returns the built-in model alias table.
// gemini-auto maps to an empty id, which lets the upstream pick.
func DefaultModels() map[string]string {
	return map[string]string{
		"gemini-auto":          "",
		"gemini-2.5-flash":     "gemini-2.5-flash",
		"gemini-2.5-pro":       "gemini-2.5-pro",
		"gemini-3-pro-preview": "gemini-3-pro-preview",
	}
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyCORSDefaults(&cfg.CORS)
	applyUpstreamDefaults(&cfg.Upstream)

	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels()
	}

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.SweepSchedule == "" {
		cfg.Session.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Session.ChatRegistrySize == 0 {
		cfg.Session.ChatRegistrySize = DefaultChatRegistrySize
	}

	if cfg.Orchestrator.SessionRetries == nil {
		retries := DefaultSessionRetries
		cfg.Orchestrator.SessionRetries = &retries
	}
	if cfg.Orchestrator.ImageFetchConcurrency == 0 {
		cfg.Orchestrator.ImageFetchConcurrency = DefaultImageFetchConcurrency
	}
	if cfg.Orchestrator.ImageFetchTimeout == 0 {
		cfg.Orchestrator.ImageFetchTimeout = DefaultImageFetchTimeout
	}

	applyArtifactDefaults(&cfg.Artifacts)
	applyTelemetryDefaults(&cfg.Telemetry)
}

// NewDefault returns a configuration with every default applied and no accounts.
func NewDefault() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.ReadinessTimeout == 0 {
		s.ReadinessTimeout = DefaultReadinessTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// applyCORSDefaults fills in CORS lists. Enabled is left as configured.
func applyCORSDefaults(c *CORSConfig) {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"X-Request-ID"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultCORSMaxAge
	}
}

func applyUpstreamDefaults(u *UpstreamConfig) {
	if u.AuthBaseURL == "" {
		u.AuthBaseURL = DefaultAuthBaseURL
	}
	if u.APIBaseURL == "" {
		u.APIBaseURL = DefaultAPIBaseURL
	}
	if u.Timeout == 0 {
		u.Timeout = DefaultUpstreamTimeout
	}
	if u.ConnectTimeout == 0 {
		u.ConnectTimeout = DefaultConnectTimeout
	}
	if u.UserAgent == "" {
		u.UserAgent = DefaultUserAgent
	}
	if u.LanguageCode == "" {
		u.LanguageCode = DefaultLanguageCode
	}
	if u.TimeZone == "" {
		u.TimeZone = DefaultTimeZone
	}
	if u.MaxIdleConns == 0 {
		u.MaxIdleConns = DefaultMaxIdleConns
	}
	if u.MaxIdleConnsPerHost == 0 {
		u.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if u.IdleConnTimeout == 0 {
		u.IdleConnTimeout = DefaultIdleConnTimeout
	}
}

func applyArtifactDefaults(a *ArtifactsConfig) {
	if a.Dir == "" {
		a.Dir = DefaultArtifactsDir
	}
	if a.Catalog.Backend == "" {
		a.Catalog.Backend = DefaultCatalogBackend
	}
	if a.Catalog.SQLitePath == "" {
		a.Catalog.SQLitePath = DefaultCatalogSQLitePath
	}
	if a.Catalog.BusyTimeout == 0 {
		a.Catalog.BusyTimeout = DefaultCatalogBusyTimeout
	}
	if a.Retention.Schedule == "" {
		a.Retention.Schedule = DefaultRetentionSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultServiceName
	}
}
