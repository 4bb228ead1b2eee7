// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Cache    CacheConfig
	Retry    RetryConfig
	Refresh  RefreshConfig
	Database DatabaseConfig
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

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig describes the remote CSV dataset.
type SourceConfig struct {
	// URL is the location of the provider CSV file (required)
	// Supports both SOURCE_URL and CSV_URL env vars for compatibility
	URL string `env:"SOURCE_URL" envAlt:"CSV_URL" required:"true"`

	// FetchTimeout bounds a single HTTP fetch (default: 30s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`

	// UserAgent is sent with every fetch request
	UserAgent string `env:"SOURCE_USER_AGENT" default:"localwise-directory/1.0"`

	// FallbackFile is an optional local CSV used when every other data
	// source is exhausted. Parsed once at startup.
	FallbackFile string `env:"SOURCE_FALLBACK_FILE"`
}

// CacheConfig holds provider cache settings.
type CacheConfig struct {
	// TTL is how long a cached provider list is considered fresh (default: 5m)
	// Shared by the in-memory tier and the persisted snapshot tier.
	TTL time.Duration `env:"CACHE_TTL" default:"5m"`
}

// RetryConfig holds fetch retry settings.
type RetryConfig struct {
	// Attempts is the number of fetch-parse cycles before falling back (default: 3)
	Attempts int `env:"RETRY_ATTEMPTS" default:"3"`

	// Delay is the base for linear backoff: attempt N waits Delay*N (default: 2s)
	Delay time.Duration `env:"RETRY_DELAY" default:"2s"`
}

// RefreshConfig holds background refresh settings.
type RefreshConfig struct {
	// Enabled controls the auto-refresh scheduler (default: true)
	Enabled bool `env:"AUTO_REFRESH_ENABLED" default:"true"`

	// Interval is how often the scheduler refreshes the dataset (default: 5m)
	Interval time.Duration `env:"AUTO_REFRESH_INTERVAL" default:"5m"`
}

// DatabaseConfig holds optional PostgreSQL settings for the persisted
// snapshot tier. When URL is empty the tier falls back to process memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// AdminToken gates the forced-refresh endpoint. Empty disables admin routes.
	AdminToken string `env:"ADMIN_TOKEN"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
