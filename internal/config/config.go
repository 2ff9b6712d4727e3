package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend names for the result store and event bus adapters.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the plugin orchestrator.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"PLEXO_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"PLEXO_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Adapter backends
	ResultBackend string `env:"PLEXO_RESULT_BACKEND" envDefault:"memory"`
	EventBackend  string `env:"PLEXO_EVENT_BACKEND" envDefault:"memory"`

	// Redis configuration (used when a backend is "redis")
	Redis RedisConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// SchedulerConfig holds orchestrator timing configuration.
type SchedulerConfig struct {
	// SettleDelay is the advisory pause after launching a batch of
	// plugins. It is not a synchronization guarantee; use the blocking
	// wait when completion must be observed.
	SettleDelay time.Duration `env:"PLEXO_SETTLE_DELAY" envDefault:"100ms"`

	// PollInterval is the liveness polling cadence of the blocking
	// wait loop.
	PollInterval time.Duration `env:"PLEXO_POLL_INTERVAL" envDefault:"1s"`
}

// TimeoutConfig holds shutdown timing configuration.
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"PLEXO_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	validBackends := map[string]bool{
		BackendMemory: true,
		BackendRedis:  true,
	}
	if !validBackends[c.ResultBackend] {
		return fmt.Errorf("invalid result backend: %s (must be memory or redis)", c.ResultBackend)
	}
	if !validBackends[c.EventBackend] {
		return fmt.Errorf("invalid event backend: %s (must be memory or redis)", c.EventBackend)
	}

	if c.NeedsRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when a redis backend is selected")
	}

	if c.Scheduler.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative")
	}
	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// NeedsRedis reports whether any configured backend requires a Redis
// connection.
func (c *Config) NeedsRedis() bool {
	return c.ResultBackend == BackendRedis || c.EventBackend == BackendRedis
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
