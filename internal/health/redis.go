package health

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisChecker checks connectivity of the marks backend.
type RedisChecker struct {
	client redis.UniversalClient
	name   string

	mu      sync.Mutex
	version string
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{
		client: client,
		name:   "redis",
	}
}

// Name returns the name of the checker.
func (r *RedisChecker) Name() string {
	return r.name
}

// Check pings Redis and records the server version from INFO.
func (r *RedisChecker) Check(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client not configured")
	}

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	info, err := r.client.Info(ctx, "server").Result()
	if err != nil {
		// Ping worked, so marks are still served.
		return Degraded(fmt.Errorf("failed to get redis info: %w", err))
	}

	r.mu.Lock()
	r.version = infoField(info, "redis_version")
	r.mu.Unlock()

	return nil
}

// Details implements DetailReporter.
func (r *RedisChecker) Details() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version == "" {
		return nil
	}
	return map[string]interface{}{"redis_version": r.version}
}

// infoField extracts key from an INFO reply.
func infoField(info, key string) string {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, key+":"); ok {
			return v
		}
	}
	return ""
}
