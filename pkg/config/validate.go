package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
//
// Account credentials are only checked for presence here; the auth package
// performs the cookie-level checks when accounts are built.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateAccounts(cfg.Accounts)...)
	errs = append(errs, validateModels(cfg.Models)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateOrchestrator(&cfg.Orchestrator)...)
	errs = append(errs, validateArtifacts(&cfg.Artifacts)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if err := validateHTTPURL(cfg.BaseURL); err != "" {
		errs = append(errs, FieldError{Field: "server.base_url", Message: err})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be non-negative"})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if err := validateHTTPURL(cfg.AuthBaseURL); err != "" {
		errs = append(errs, FieldError{Field: "upstream.auth_base_url", Message: err})
	}
	if err := validateHTTPURL(cfg.APIBaseURL); err != "" {
		errs = append(errs, FieldError{Field: "upstream.api_base_url", Message: err})
	}
	if cfg.Proxy != "" {
		if _, err := url.Parse(cfg.Proxy); err != nil {
			errs = append(errs, FieldError{Field: "upstream.proxy", Message: fmt.Sprintf("invalid proxy URL: %v", err)})
		}
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "upstream.timeout", Message: "timeout must be positive"})
	}
	if cfg.ConnectTimeout < 0 {
		errs = append(errs, FieldError{Field: "upstream.connect_timeout", Message: "connect timeout must be positive"})
	}

	return errs
}

func validateAccounts(accounts []AccountConfig) []FieldError {
	var errs []FieldError

	if len(accounts) == 0 {
		return append(errs, FieldError{Field: "accounts", Message: "at least one account is required"})
	}

	seen := make(map[string]bool, len(accounts))
	for i, acct := range accounts {
		prefix := fmt.Sprintf("accounts[%d]", i)
		if acct.Name != "" {
			prefix = fmt.Sprintf("accounts[%s]", acct.Name)
			if seen[acct.Name] {
				errs = append(errs, FieldError{Field: prefix + ".name", Message: "duplicate account name"})
			}
			seen[acct.Name] = true
		}

		required := []struct {
			field string
			value string
		}{
			{"name", acct.Name},
			{"config_id", acct.ConfigID},
			{"cookies", acct.Cookies},
			{"csesidx", acct.Csesidx},
			{"project_id", acct.ProjectID},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				errs = append(errs, FieldError{Field: prefix + "." + r.field, Message: "field is required"})
			}
		}
	}

	return errs
}

func validateModels(models map[string]string) []FieldError {
	var errs []FieldError
	for alias := range models {
		if strings.TrimSpace(alias) == "" {
			errs = append(errs, FieldError{Field: "models", Message: "model alias must not be empty"})
		}
	}
	return errs
}

func validateSession(cfg *SessionConfig) []FieldError {
	var errs []FieldError

	if cfg.TTL <= 0 {
		errs = append(errs, FieldError{Field: "session.ttl", Message: "ttl must be positive"})
	}
	if err := validateSchedule(cfg.SweepSchedule); err != "" {
		errs = append(errs, FieldError{Field: "session.sweep_schedule", Message: err})
	}
	if cfg.ChatRegistrySize < 0 {
		errs = append(errs, FieldError{Field: "session.chat_registry_size", Message: "size must be positive"})
	}

	return errs
}

func validateOrchestrator(cfg *OrchestratorConfig) []FieldError {
	var errs []FieldError

	if cfg.SessionRetryBudget() < 0 {
		errs = append(errs, FieldError{Field: "orchestrator.session_retries", Message: "retries must be non-negative"})
	}
	if cfg.ImageFetchConcurrency < 0 {
		errs = append(errs, FieldError{Field: "orchestrator.image_fetch_concurrency", Message: "concurrency must be positive"})
	}

	return errs
}

func validateArtifacts(cfg *ArtifactsConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" {
		errs = append(errs, FieldError{Field: "artifacts.dir", Message: "directory is required"})
	}

	switch cfg.Catalog.Backend {
	case "memory":
	case "sqlite":
		if cfg.Catalog.SQLitePath == "" {
			errs = append(errs, FieldError{Field: "artifacts.catalog.sqlite_path", Message: "path is required for sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "artifacts.catalog.backend",
			Message: fmt.Sprintf("unsupported backend %q (expected memory or sqlite)", cfg.Catalog.Backend),
		})
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "artifacts.retention.max_age", Message: "max age must be non-negative"})
	}
	if err := validateSchedule(cfg.Retention.Schedule); err != "" {
		errs = append(errs, FieldError{Field: "artifacts.retention.schedule", Message: err})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level)})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format)})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0 and 1"})
	}

	return errs
}

func validateHTTPURL(raw string) string {
	if raw == "" {
		return "URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "URL must use http or https"
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

func validateSchedule(expr string) string {
	if expr == "" {
		return "schedule is required"
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Sprintf("invalid cron expression: %v", err)
	}
	return ""
}
