// Package config loads the service configuration from defaults, an optional
// YAML file, and VANITY_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults carried over from the original service.
const (
	DefaultBase    = "3tJrAXnjofAw8oskbMaSo9oMAYuzdBgVbW3TvQLdMEBd"
	DefaultOwner   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	DefaultPort    = 8080
	DefaultTimeout = 5 * time.Minute
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Grind     GrindConfig     `yaml:"grind"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxConcurrentWorkers caps the worker goroutines of all in-flight grinds.
	// Requests beyond the budget wait for capacity. A configured grind cpus
	// value above it is clamped by the server.
	MaxConcurrentWorkers int `yaml:"max_concurrent_workers"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a reverse proxy that sets them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GrindConfig holds the default search parameters used by GET /grind
type GrindConfig struct {
	Base            string        `yaml:"base"`
	Owner           string        `yaml:"owner"`
	Prefix          string        `yaml:"prefix"`
	Suffix          string        `yaml:"suffix"`
	CaseInsensitive bool          `yaml:"case_insensitive"`
	CPUs            int           `yaml:"cpus"`    // 0 = all logical CPUs
	Timeout         time.Duration `yaml:"timeout"` // 0 = no deadline
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	Enabled   bool    `yaml:"enabled"`
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	cfg := &Config{
		Grind: GrindConfig{Timeout: DefaultTimeout},
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills in zero values
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxConcurrentWorkers == 0 {
		c.Server.MaxConcurrentWorkers = runtime.NumCPU()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Grind.Base == "" {
		c.Grind.Base = DefaultBase
	}
	if c.Grind.Owner == "" {
		c.Grind.Owner = DefaultOwner
	}

	if c.RateLimit.PerSecond == 0 {
		c.RateLimit.PerSecond = 1
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Grind defaults
	if base := os.Getenv("VANITY_DEFAULT_BASE"); base != "" {
		c.Grind.Base = base
	}
	if owner := os.Getenv("VANITY_DEFAULT_OWNER"); owner != "" {
		c.Grind.Owner = owner
	}
	if prefix, ok := os.LookupEnv("VANITY_DEFAULT_PREFIX"); ok {
		c.Grind.Prefix = prefix
	}
	if suffix, ok := os.LookupEnv("VANITY_DEFAULT_SUFFIX"); ok {
		c.Grind.Suffix = suffix
	}
	if ci := os.Getenv("VANITY_DEFAULT_CASE_INSENSITIVE"); ci != "" {
		val, err := strconv.ParseBool(ci)
		if err != nil {
			return fmt.Errorf("invalid VANITY_DEFAULT_CASE_INSENSITIVE: %w", err)
		}
		c.Grind.CaseInsensitive = val
	}
	if cpus := os.Getenv("VANITY_DEFAULT_CPUS"); cpus != "" {
		val, err := strconv.Atoi(cpus)
		if err != nil {
			return fmt.Errorf("invalid VANITY_DEFAULT_CPUS: %w", err)
		}
		c.Grind.CPUs = val
	}
	if timeout := os.Getenv("VANITY_TIMEOUT"); timeout != "" {
		val, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid VANITY_TIMEOUT: %w", err)
		}
		c.Grind.Timeout = val
	}

	// Server
	if host := os.Getenv("VANITY_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("VANITY_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid VANITY_PORT: %w", err)
		}
		c.Server.Port = val
	}
	if maxWorkers := os.Getenv("VANITY_MAX_CONCURRENT_WORKERS"); maxWorkers != "" {
		val, err := strconv.Atoi(maxWorkers)
		if err != nil {
			return fmt.Errorf("invalid VANITY_MAX_CONCURRENT_WORKERS: %w", err)
		}
		c.Server.MaxConcurrentWorkers = val
	}
	if trust := os.Getenv("VANITY_TRUST_PROXY_HEADERS"); trust != "" {
		val, err := strconv.ParseBool(trust)
		if err != nil {
			return fmt.Errorf("invalid VANITY_TRUST_PROXY_HEADERS: %w", err)
		}
		c.Server.TrustProxyHeaders = val
	}

	// Log
	if level := os.Getenv("VANITY_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("VANITY_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}

	// Rate limit
	if enabled := os.Getenv("VANITY_RATE_LIMIT_ENABLED"); enabled != "" {
		val, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid VANITY_RATE_LIMIT_ENABLED: %w", err)
		}
		c.RateLimit.Enabled = val
	}
	if perSecond := os.Getenv("VANITY_RATE_LIMIT_PER_SECOND"); perSecond != "" {
		val, err := strconv.ParseFloat(perSecond, 64)
		if err != nil {
			return fmt.Errorf("invalid VANITY_RATE_LIMIT_PER_SECOND: %w", err)
		}
		c.RateLimit.PerSecond = val
	}
	if burst := os.Getenv("VANITY_RATE_LIMIT_BURST"); burst != "" {
		val, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("invalid VANITY_RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimit.Burst = val
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate validates the configuration. Base and owner are only checked for
// presence here; their encoding is validated by each grind.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.MaxConcurrentWorkers <= 0 {
		return fmt.Errorf("max concurrent workers must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, console", c.Log.Format)
	}

	if c.Grind.Base == "" {
		return fmt.Errorf("grind base is required")
	}
	if c.Grind.Owner == "" {
		return fmt.Errorf("grind owner is required")
	}
	if c.Grind.CPUs < 0 {
		return fmt.Errorf("grind cpus cannot be negative")
	}
	if c.Grind.Timeout < 0 {
		return fmt.Errorf("grind timeout cannot be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.PerSecond <= 0 {
			return fmt.Errorf("rate limit per second must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	return nil
}

// Address returns the listen address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load is a convenience method that loads configuration in the following order:
// 1. Set defaults
// 2. Load from file (if provided)
// 3. Load from environment variables (override file)
// 4. Validate
func Load(configFile string) (*Config, error) {
	cfg := NewConfig()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
