package config

import (
	"fmt"
	"os"

	"github.com/zsiec/chrono/pkg/fps"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if c.Marks.Backend == "redis" {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Timecode.Validate(); err != nil {
		return fmt.Errorf("timecode config: %w", err)
	}

	if err := c.Marks.Validate(); err != nil {
		return fmt.Errorf("marks config: %w", err)
	}

	return nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

func (s *ServerConfig) Validate() error {
	if !validPort(s.HTTPPort) {
		return fmt.Errorf("invalid HTTP port: %d", s.HTTPPort)
	}

	if s.HTTP3Port != 0 {
		if !validPort(s.HTTP3Port) {
			return fmt.Errorf("invalid HTTP3 port: %d", s.HTTP3Port)
		}
		if s.HTTP3Port == s.HTTPPort {
			return fmt.Errorf("HTTP3 port %d collides with HTTP port", s.HTTP3Port)
		}

		if s.TLSCertFile == "" {
			return fmt.Errorf("TLS certificate file is required for HTTP/3")
		}
		if s.TLSKeyFile == "" {
			return fmt.Errorf("TLS key file is required for HTTP/3")
		}

		if _, err := os.Stat(s.TLSCertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", s.TLSCertFile)
		}
		if _, err := os.Stat(s.TLSKeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", s.TLSKeyFile)
		}
	}

	if err := s.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	return nil
}

func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if r.Burst <= 0 {
		return fmt.Errorf("burst must be positive")
	}
	if r.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout cannot be negative")
	}
	return nil
}

func (r *RedisConfig) Validate() error {
	if len(r.Addresses) == 0 {
		return fmt.Errorf("at least one Redis address is required")
	}

	if r.DB < 0 {
		return fmt.Errorf("invalid Redis database number: %d", r.DB)
	}

	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if r.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive")
	}

	if r.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns cannot be negative")
	}

	if r.MinIdleConns > r.PoolSize {
		return fmt.Errorf("min_idle_conns cannot be greater than pool_size")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if !validPort(m.Port) {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}

func (t *TimecodeConfig) Validate() error {
	if _, err := t.Rate(); err != nil {
		return err
	}
	return nil
}

// Rate resolves DefaultRate against the frame rate catalog.
func (t *TimecodeConfig) Rate() (fps.Rate, error) {
	if t.DefaultRate == "" {
		return fps.Default(), nil
	}
	r, err := fps.Parse(t.DefaultRate)
	if err != nil {
		return fps.None, fmt.Errorf("default_rate: %w", err)
	}
	if r == fps.None {
		return fps.None, fmt.Errorf("default_rate cannot be NONE")
	}
	return r, nil
}

func (m *MarksConfig) Validate() error {
	if m.Backend != "redis" && m.Backend != "memory" {
		return fmt.Errorf("backend must be 'redis' or 'memory', got %q", m.Backend)
	}
	if m.Backend == "redis" && m.KeyPrefix == "" {
		return fmt.Errorf("key_prefix cannot be empty")
	}
	if m.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative")
	}
	return nil
}
