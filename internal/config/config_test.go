package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/chrono/pkg/fps"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: 8080,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 10,
				Burst:             20,
			},
		},
		Redis: RedisConfig{
			Addresses:    []string{"localhost:6379"},
			MaxRetries:   3,
			PoolSize:     10,
			MinIdleConns: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Timecode: TimecodeConfig{DefaultRate: "25 fps"},
		Marks:    MarksConfig{Backend: "redis", KeyPrefix: "chrono:marks:"},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
			errMsg:  "invalid HTTP port",
		},
		{
			name: "http3 without certificates",
			mutate: func(c *Config) {
				c.Server.HTTP3Port = 8443
			},
			wantErr: true,
			errMsg:  "TLS certificate file is required",
		},
		{
			name: "http3 cert files not found",
			mutate: func(c *Config) {
				c.Server.HTTP3Port = 8443
				c.Server.TLSCertFile = "/nonexistent/cert.pem"
				c.Server.TLSKeyFile = "/nonexistent/key.pem"
			},
			wantErr: true,
			errMsg:  "TLS certificate file not found",
		},
		{
			name:    "http3 port collides",
			mutate:  func(c *Config) { c.Server.HTTP3Port = 8080 },
			wantErr: true,
			errMsg:  "collides",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.Server.RateLimit.Burst = 0 },
			wantErr: true,
			errMsg:  "burst must be positive",
		},
		{
			name: "disabled rate limit skips checks",
			mutate: func(c *Config) {
				c.Server.RateLimit = RateLimitConfig{Enabled: false}
			},
		},
		{
			name:    "redis ignored for memory backend",
			mutate:  func(c *Config) { c.Marks.Backend = "memory"; c.Redis = RedisConfig{} },
			wantErr: false,
		},
		{
			name:    "redis required for redis backend",
			mutate:  func(c *Config) { c.Redis = RedisConfig{} },
			wantErr: true,
			errMsg:  "at least one Redis address",
		},
		{
			name:    "unknown marks backend",
			mutate:  func(c *Config) { c.Marks.Backend = "etcd" },
			wantErr: true,
			errMsg:  "backend must be",
		},
		{
			name:    "unknown default rate",
			mutate:  func(c *Config) { c.Timecode.DefaultRate = "23.976" },
			wantErr: true,
			errMsg:  "default_rate",
		},
		{
			name:    "none default rate",
			mutate:  func(c *Config) { c.Timecode.DefaultRate = "NONE" },
			wantErr: true,
			errMsg:  "cannot be NONE",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "file output needs max size",
			mutate:  func(c *Config) { c.Logging.Output = "/tmp/chrono.log" },
			wantErr: true,
			errMsg:  "max_size must be positive",
		},
		{
			name:    "metrics path empty",
			mutate:  func(c *Config) { c.Metrics.Path = "" },
			wantErr: true,
			errMsg:  "metrics path cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedisConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  RedisConfig
		wantErr bool
	}{
		{
			name: "negative DB",
			config: RedisConfig{
				Addresses: []string{"localhost:6379"},
				DB:        -1,
				PoolSize:  100,
			},
			wantErr: true,
		},
		{
			name: "zero pool size",
			config: RedisConfig{
				Addresses: []string{"localhost:6379"},
				PoolSize:  0,
			},
			wantErr: true,
		},
		{
			name: "min idle conns greater than pool size",
			config: RedisConfig{
				Addresses:    []string{"localhost:6379"},
				PoolSize:     10,
				MinIdleConns: 20,
			},
			wantErr: true,
		},
		{
			name: "valid",
			config: RedisConfig{
				Addresses: []string{"localhost:6379"},
				PoolSize:  10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimecodeRate(t *testing.T) {
	tc := TimecodeConfig{DefaultRate: "29.97df"}
	r, err := tc.Rate()
	require.NoError(t, err)
	assert.Equal(t, fps.FPS29_97DF, r)

	tc = TimecodeConfig{}
	r, err = tc.Rate()
	require.NoError(t, err)
	assert.Equal(t, fps.Default(), r)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chrono.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9000
  rate_limit:
    requests_per_second: 5
    burst: 10

logging:
  level: "debug"
  format: "text"

timecode:
  default_rate: "30 fps"
  extended: true

marks:
  backend: "memory"
  ttl: "1h"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 0, cfg.Server.HTTP3Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 5.0, cfg.Server.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Server.RateLimit.Burst)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "30 fps", cfg.Timecode.DefaultRate)
	assert.True(t, cfg.Timecode.Extended)
	assert.Equal(t, "memory", cfg.Marks.Backend)
	assert.Equal(t, "chrono:marks:", cfg.Marks.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Marks.TTL)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
marks:
  backend: "memory"
`)
	t.Setenv("CHRONO_TIMECODE_DEFAULT_RATE", "60")
	t.Setenv("CHRONO_SERVER_HTTP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "60", cfg.Timecode.DefaultRate)
	assert.Equal(t, 9100, cfg.Server.HTTPPort)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, `
server:
  http3_port: 8443
  tls_cert_file: "missing-cert.pem"
  tls_key_file: "missing-key.pem"
`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
