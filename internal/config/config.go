// Package config defines the global configuration structure for the
// BioSentinel platform. Configuration is loaded once at process
// initialization and is immutable thereafter. It follows 12-Factor App
// principles by strictly separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format causes the application to
// fail immediately on startup (fail fast).
package config

import (
	"time"

	"biosentinel/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the BioSentinel platform.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"biosentinel-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Database  DatabaseConfig
	GBIF      GBIFConfig
	Firms     FirmsConfig
	Alerts    AlertsConfig
	Archive   ArchiveConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig

	// Build Metadata (injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds the Postgres connection and pool tuning parameters
// for the alert sink. URL may be empty in local mode, in which case the
// file-backed sink is used instead.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// GBIFConfig holds the occurrence provider endpoint configuration.
type GBIFConfig struct {
	BaseURL     string        `envconfig:"GBIF_BASE_URL" default:"https://api.gbif.org/v1" validate:"required,url"`
	Timeout     time.Duration `envconfig:"GBIF_TIMEOUT" default:"30s"`
	CacheTTL    time.Duration `envconfig:"GBIF_CACHE_TTL" default:"10m"`
	HistoryDays int           `envconfig:"GBIF_HISTORY_DAYS" default:"90"`
}

// FirmsConfig holds the fire-hotspot provider endpoint configuration.
type FirmsConfig struct {
	BaseURL string        `envconfig:"FIRMS_BASE_URL" default:"https://firms.modaps.eosdis.nasa.gov/api/region" validate:"required,url"`
	APIKey  SecretString  `envconfig:"FIRMS_API_KEY" default:"DEMO_KEY"`
	Timeout time.Duration `envconfig:"FIRMS_TIMEOUT" default:"30s"`
}

// AlertsConfig holds alert assembly and local storage settings.
type AlertsConfig struct {
	// StorePath is the JSON file used by the file-backed sink in local mode.
	StorePath string `envconfig:"ALERTS_STORE_PATH" default:"data/alerts.json"`
	// DefaultRegion is the hotspot feed region used by the regional
	// risk-analysis endpoint.
	DefaultRegion string `envconfig:"ALERTS_DEFAULT_REGION" default:"africa"`
}

// ArchiveConfig holds cold-storage settings for the alert archiver.
// Bucket may be empty, in which case archival is disabled.
type ArchiveConfig struct {
	Bucket    string        `envconfig:"ARCHIVE_BUCKET"`
	Region    string        `envconfig:"AWS_REGION" default:"us-east-1"`
	Retention time.Duration `envconfig:"ARCHIVE_RETENTION" default:"2160h"` // 90 days
	// EndpointURL supports MinIO in local dev (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// RateLimitConfig holds the fixed-window request limiter settings applied
// per client IP.
type RateLimitConfig struct {
	Max    int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	Window time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10m"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
