// Package ratelimit throttles API clients with one token bucket each.
package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/logger"
	"github.com/zsiec/chrono/internal/metrics"
)

// DefaultIdleTimeout is how long an unused client bucket is kept.
const DefaultIdleTimeout = 5 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps a token bucket per client key.
type ClientLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewClientLimiter allows each client requestsPerSecond on average with
// bursts up to burst. idle <= 0 selects DefaultIdleTimeout.
func NewClientLimiter(requestsPerSecond float64, burst int, idle time.Duration) *ClientLimiter {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		idle:    idle,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (l *ClientLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
		metrics.SetRateLimitClients(len(l.clients))
	}
	c.lastSeen = l.now()
	return c.limiter
}

// Allow consumes one token for key.
func (l *ClientLimiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

// Reserve consumes one token for key and reports how long the caller would
// have to wait for it. A zero delay means the request may proceed. When the
// delay is positive the token is returned.
func (l *ClientLimiter) Reserve(key string) time.Duration {
	now := l.now()
	r := l.get(key).ReserveN(now, 1)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
	}
	return delay
}

// Wait blocks until key may proceed or ctx is done.
func (l *ClientLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Sweep drops buckets unused for longer than the idle timeout and returns
// how many were removed.
func (l *ClientLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	metrics.SetRateLimitClients(len(l.clients))
	return removed
}

// Run sweeps every half idle timeout until ctx is done.
func (l *ClientLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
// onLimit renders the error.
func (l *ClientLimiter) Middleware(onLimit func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := logger.RemoteIP(r)
			delay := l.Reserve(key)
			if delay == 0 {
				next.ServeHTTP(w, r)
				return
			}

			metrics.IncrementRateLimited()
			retry := int(math.Ceil(delay.Seconds()))
			if retry < 1 || delay == time.Duration(math.MaxInt64) {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(float64(l.limit), 'f', -1, 64))

			onLimit(w, r, apperrors.NewRateLimitError("too many requests").
				WithDetails(map[string]interface{}{"retry_after_seconds": retry}))
		})
	}
}
