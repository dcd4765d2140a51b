package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc reports the value of a variable and whether it is set.
// os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup, applies `default` tags
// for unset or empty variables and validates the result. Every malformed
// variable is reported, not just the first.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	l := &loader{lookup: lookup}
	l.fill(reflect.ValueOf(cfg).Elem())
	if len(l.errs) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(l.errs...))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// loader walks a config struct and sets every field tagged `env`, falling
// back to `envAlt` and then to `default`.
type loader struct {
	lookup LookupFunc
	errs   []error
}

func (l *loader) fill(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			l.fill(fv)
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}
		value := l.get(key)
		if value == "" {
			value = l.get(field.Tag.Get("envAlt"))
		}
		if value == "" {
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fv, value); err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s=%q: %w", key, value, err))
		}
	}
}

func (l *loader) get(key string) string {
	if key == "" {
		return ""
	}
	v, _ := l.lookup(key)
	return strings.TrimSpace(v)
}

// setField parses value into a string, integer, duration, boolean or
// comma-separated string slice field.
func setField(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(value)
	case field.Kind() == reflect.Int || field.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// Validate reports every invalid setting in one error.
func (c *Config) Validate() error {
	var errs []string

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
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, "SERVER_MAX_UPLOAD_SIZE must be positive")
	}

	// Remote validation
	switch strings.ToLower(c.Remote.Backend) {
	case BackendGoogle:
		if c.Remote.SpreadsheetID == "" {
			errs = append(errs, "REMOTE_SPREADSHEET_ID is required for the google backend")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("REMOTE_BACKEND (%q) must be one of: google, memory", c.Remote.Backend))
	}
	if c.Remote.MaxRows <= 0 {
		errs = append(errs, "REMOTE_MAX_ROWS must be positive")
	}
	if c.Remote.MaxCascadeDepth <= 0 {
		errs = append(errs, "REMOTE_MAX_CASCADE_DEPTH must be positive")
	}

	// Links validation
	if c.Links.DatabaseURL != "" && c.Links.MaxConns < c.Links.MinConns {
		errs = append(errs, fmt.Sprintf("LINKS_DB_MAX_CONNS (%d) must be >= LINKS_DB_MIN_CONNS (%d)",
			c.Links.MaxConns, c.Links.MinConns))
	}

	// Scan validation
	if c.Scan.MaxConcurrent <= 0 {
		errs = append(errs, "SCAN_MAX_CONCURRENT must be positive")
	}
	if c.Scan.Timeout <= 0 {
		errs = append(errs, "SCAN_TIMEOUT must be positive")
	}
	if c.Scan.MaxWaitTime <= 0 {
		errs = append(errs, "SCAN_MAX_WAIT_TIME must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ScanLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_SCAN must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String renders the config for logs with tokens, credentials and database
// URLs masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Remote: {Backend: %q, SpreadsheetID: %q, RootFolderID: %q, Credentials: %s, AccessToken: %s, MaxRows: %d}, ",
		c.Remote.Backend, c.Remote.SpreadsheetID, c.Remote.RootFolderID,
		mask(c.Remote.CredentialsFile), mask(c.Remote.AccessToken), c.Remote.MaxRows))
	b.WriteString(fmt.Sprintf("Links: {DatabaseURL: %s, MaxConns: %d}, ", mask(c.Links.DatabaseURL), c.Links.MaxConns))
	b.WriteString(fmt.Sprintf("Scan: {Endpoint: %q, MaxConcurrent: %d}, ", c.Scan.Endpoint, c.Scan.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
