package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable holding an optional YAML
// overlay file.
const ConfigFileEnv = "CONFIG_FILE"

// lookupFunc returns the raw value for an env name, or "" when unset.
type lookupFunc func(name string) string

// Load reads configuration from environment variables, then from the file
// named by CONFIG_FILE if set, then from defaults.
// Returns an error if a value is malformed or validation fails.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit overlay file. An empty path skips the
// file. File keys are the environment variable names, matched case-insensitively:
//
//	server_port: 9090
//	trusted_proxies: [10.0.0.0/8, 192.168.0.0/16]
//
// Environment variables always win over the file.
func LoadFile(path string) (*Config, error) {
	lookup := lookupFunc(os.Getenv)

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config load: read %s: %w", path, err)
		}
		lookup = func(name string) string {
			if value := os.Getenv(name); value != "" {
				return value
			}
			return fileValue(v, name)
		}
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// fileValue renders a viper value in the same text form as an env var.
// YAML lists become comma-separated strings.
func fileValue(v *viper.Viper, name string) string {
	key := strings.ToLower(name)
	if !v.IsSet(key) {
		return ""
	}
	switch raw := v.Get(key).(type) {
	case []any:
		parts := make([]string, len(raw))
		for i, p := range raw {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(raw)
	}
}

// loadStruct recursively populates struct fields using lookup.
func loadStruct(v reflect.Value, lookup lookupFunc) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Try primary name, then alternate
		value := lookup(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = lookup(alt)
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var result []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL != "" {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Report validation
	if c.Report.MaxFileSize <= 0 {
		errs = append(errs, "REPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Report.MaxConcurrent <= 0 {
		errs = append(errs, "REPORT_MAX_CONCURRENT must be positive")
	}
	if c.Report.MaxWaitTime <= 0 {
		errs = append(errs, "REPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Report.Timeout <= 0 {
		errs = append(errs, "REPORT_TIMEOUT must be positive")
	}
	validReportFormats := map[string]bool{"xlsx": true, "html": true, "json": true}
	if !validReportFormats[c.Report.DefaultFormat] {
		errs = append(errs, fmt.Sprintf("REPORT_DEFAULT_FORMAT (%q) must be one of: xlsx, html, json", c.Report.DefaultFormat))
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ReportLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_REPORTS must be positive when rate limiting is enabled")
	}

	// History validation
	if c.History.Capacity <= 0 {
		errs = append(errs, "HISTORY_CAPACITY must be positive")
	}
	if c.History.Retention <= 0 {
		errs = append(errs, "HISTORY_RETENTION must be positive")
	}
	if c.History.PruneInterval <= 0 {
		errs = append(errs, "HISTORY_PRUNE_INTERVAL must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true, "pretty": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json, pretty", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	dbURL := "[NONE]"
	if c.Database.URL != "" {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d}, ", dbURL, c.Database.MaxConns)
	fmt.Fprintf(&b, "Report: {SchemaPath: %q, MaxFileSize: %d, MaxConcurrent: %d, DynamicTyping: %v}, ",
		c.Report.SchemaPath, c.Report.MaxFileSize, c.Report.MaxConcurrent, c.Report.DynamicTyping)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, ReportLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.ReportLimit)
	fmt.Fprintf(&b, "History: {Capacity: %d, Retention: %s}, ", c.History.Capacity, c.History.Retention)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
