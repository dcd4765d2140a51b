// Package config loads the server and CLI settings from environment
// variables. Struct tags name each variable (`env`, optional `envAlt`) and
// its `default`; Validate rejects the whole config on any bad setting.
package config

import (
	"strconv"
	"time"
)

// Remote backends.
const (
	BackendGoogle = "google"
	BackendMemory = "memory"
)

// Config holds the settings for the remote stores, the link database, the
// scanner and the HTTP server.
type Config struct {
	Server   ServerConfig
	Remote   RemoteConfig
	Links    LinksConfig
	Scan     ScanConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 90s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxUploadSize is the largest scanned document accepted in bytes (default: 20MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"20971520"`
}

// RemoteConfig holds the spreadsheet and folder store settings.
type RemoteConfig struct {
	// Backend selects the remote implementation: google or memory (default: google)
	Backend string `env:"REMOTE_BACKEND" default:"google"`

	// SpreadsheetID is the spreadsheet holding one tab per table
	SpreadsheetID string `env:"REMOTE_SPREADSHEET_ID" envAlt:"SPREADSHEET_ID"`

	// RootFolderID is the folder under which table folders are kept
	RootFolderID string `env:"REMOTE_ROOT_FOLDER_ID" envAlt:"ROOT_FOLDER_ID" default:"root"`

	// CredentialsFile is a service account or authorized user JSON file
	CredentialsFile string `env:"REMOTE_CREDENTIALS_FILE" envAlt:"GOOGLE_APPLICATION_CREDENTIALS"`

	// AccessToken is a pre-issued OAuth2 access token, used when no credentials file is set
	AccessToken string `env:"REMOTE_ACCESS_TOKEN"`

	// MaxRows bounds the range read from each tab (default: 5000)
	MaxRows int `env:"REMOTE_MAX_ROWS" default:"5000"`

	// MaxCascadeDepth bounds how deep cascading deletes follow dependents (default: 3)
	MaxCascadeDepth int `env:"REMOTE_MAX_CASCADE_DEPTH" default:"3"`
}

// LinksConfig holds the optional folder link database settings.
type LinksConfig struct {
	// DatabaseURL is the PostgreSQL connection string; empty keeps links in memory
	DatabaseURL string `env:"LINKS_DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"LINKS_DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"LINKS_DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"LINKS_DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"LINKS_DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ScanConfig holds document scanning settings.
type ScanConfig struct {
	// Endpoint is the extraction service base URL; empty disables remote scanning
	Endpoint string `env:"SCAN_ENDPOINT"`

	// Timeout bounds a single call to the endpoint (default: 60s)
	Timeout time.Duration `env:"SCAN_TIMEOUT" default:"60s"`

	// MaxConcurrent is the maximum number of parallel scans (default: 4)
	MaxConcurrent int `env:"SCAN_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a scan slot (default: 30s)
	MaxWaitTime time.Duration `env:"SCAN_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ScanLimit is requests per minute for scan endpoints (default: 10)
	ScanLimit int `env:"RATE_LIMIT_SCAN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enforces the X-API-Key header on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
