package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.ResultBackend)
	assert.Equal(t, BackendMemory, cfg.EventBackend)
	assert.False(t, cfg.NeedsRedis())
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.SettleDelay)
	assert.Equal(t, time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLEXO_HTTP_PORT", "18080")
	t.Setenv("PLEXO_RESULT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("PLEXO_SETTLE_DELAY", "250ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.ResultBackend)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.SettleDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("PLEXO_EVENT_BACKEND", "kafka")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event backend")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:      8080,
			GRPCPort:      9090,
			LogLevel:      "info",
			ResultBackend: BackendMemory,
			EventBackend:  BackendMemory,
			Scheduler: SchedulerConfig{
				SettleDelay:  100 * time.Millisecond,
				PollInterval: time.Second,
			},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "http port out of range",
			mutate:  func(c *Config) { c.HTTPPort = 0 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "grpc port out of range",
			mutate:  func(c *Config) { c.GRPCPort = 70000 },
			wantErr: "invalid gRPC port",
		},
		{
			name:    "unknown result backend",
			mutate:  func(c *Config) { c.ResultBackend = "etcd" },
			wantErr: "invalid result backend",
		},
		{
			name: "redis backend without address",
			mutate: func(c *Config) {
				c.ResultBackend = BackendRedis
				c.Redis.Addr = ""
			},
			wantErr: "redis address is required",
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.Scheduler.SettleDelay = -time.Second },
			wantErr: "settle delay",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Scheduler.PollInterval = 0 },
			wantErr: "poll interval",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddrs(t *testing.T) {
	cfg := &Config{HTTPPort: 8080, GRPCPort: 9090}
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}
