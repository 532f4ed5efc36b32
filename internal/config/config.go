// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables, an optional YAML file and
// defaults, and validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Report   ReportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without a URL run history stays in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// RunMigrations applies the history migrations at startup (default: true)
	RunMigrations bool `env:"DB_RUN_MIGRATIONS" default:"true"`
}

// ReportConfig holds report generation settings.
type ReportConfig struct {
	// SchemaPath is a CSVW schema file (JSON or YAML). Empty uses the built-in schema.
	SchemaPath string `env:"REPORT_SCHEMA_PATH"`

	// MaxFileSize is the maximum allowed data file size in bytes (default: 32MB)
	MaxFileSize int64 `env:"REPORT_MAX_FILE_SIZE" default:"33554432"`

	// MaxConcurrent is the maximum number of parallel runs (default: 4)
	MaxConcurrent int `env:"REPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a run slot (default: 30s)
	MaxWaitTime time.Duration `env:"REPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single run (default: 2m)
	Timeout time.Duration `env:"REPORT_TIMEOUT" default:"2m"`

	// DynamicTyping converts numeric cells to numbers and empty cells to nulls (default: false)
	DynamicTyping bool `env:"REPORT_DYNAMIC_TYPING" default:"false"`

	// DefaultFormat is used when a request names no format (default: xlsx)
	DefaultFormat string `env:"REPORT_DEFAULT_FORMAT" default:"xlsx"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ReportLimit is requests per minute for report endpoints (default: 20)
	ReportLimit int `env:"RATE_LIMIT_REPORTS" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins is a comma-separated list of CORS origins (default: none)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or pretty (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	// Capacity is the in-memory ring size when no database is set (default: 200)
	Capacity int `env:"HISTORY_CAPACITY" default:"200"`

	// Retention is how long runs are kept (default: 720h)
	Retention time.Duration `env:"HISTORY_RETENTION" default:"720h"`

	// PruneInterval is how often expired runs are deleted (default: 1h)
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" default:"1h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
