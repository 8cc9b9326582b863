package marks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/chrono/internal/metrics"
)

const redisBackend = "redis"

// DefaultKeyPrefix namespaces mark keys.
const DefaultKeyPrefix = "chrono:marks:"

// createScript sets the mark only if absent and indexes it by ticks.
var createScript = redis.NewScript(`
	local key = KEYS[1]
	local index_key = KEYS[2]
	local data = ARGV[1]
	local ttl = tonumber(ARGV[2])
	local score = ARGV[3]
	local id = ARGV[4]
	local ok
	if ttl > 0 then
		ok = redis.call('SET', key, data, 'PX', ttl, 'NX')
	else
		ok = redis.call('SET', key, data, 'NX')
	end
	if not ok then
		return 0
	end
	redis.call('ZADD', index_key, score, id)
	return 1
`)

// updateScript replaces an existing mark and moves it in the index.
var updateScript = redis.NewScript(`
	local key = KEYS[1]
	local index_key = KEYS[2]
	local data = ARGV[1]
	local ttl = tonumber(ARGV[2])
	local score = ARGV[3]
	local id = ARGV[4]
	if redis.call('EXISTS', key) == 0 then
		return 0
	end
	if ttl > 0 then
		redis.call('SET', key, data, 'PX', ttl)
	else
		redis.call('SET', key, data)
	end
	redis.call('ZADD', index_key, score, id)
	return 1
`)

// deleteScript removes a mark and its index entry.
var deleteScript = redis.NewScript(`
	local n = redis.call('DEL', KEYS[1])
	redis.call('ZREM', KEYS[2], ARGV[1])
	return n
`)

// rangeScript returns the marks scored within [min, max] and drops index
// entries whose key has expired.
var rangeScript = redis.NewScript(`
	local index_key = KEYS[1]
	local prefix = ARGV[1]
	local ids = redis.call('ZRANGEBYSCORE', index_key, ARGV[2], ARGV[3])
	local result = {}
	for i, id in ipairs(ids) do
		local mark = redis.call('GET', prefix .. id)
		if mark then
			table.insert(result, mark)
		else
			redis.call('ZREM', index_key, id)
		end
	end
	return result
`)

// RedisStore implements Store using Redis as backend. Each mark is a JSON
// value under <prefix><id>; <prefix>index is a sorted set of IDs scored by
// ticks.
type RedisStore struct {
	client redis.UniversalClient
	logger *logrus.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl of zero keeps marks
// until deleted.
func NewRedisStore(client redis.UniversalClient, logger *logrus.Logger, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		client: client,
		logger: logger,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "index"
}

func observe(op string, start time.Time) {
	metrics.RecordMarksOperation(redisBackend, op, time.Since(start).Seconds())
}

// Create adds a new mark
func (r *RedisStore) Create(ctx context.Context, m *Mark) error {
	defer observe("create", time.Now())

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := m.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mark: %w", err)
	}

	created, err := createScript.Run(ctx, r.client,
		[]string{r.key(m.ID), r.indexKey()},
		data, r.ttl.Milliseconds(), strconv.FormatUint(m.Ticks, 10), m.ID).Int()
	if err != nil {
		return fmt.Errorf("failed to create mark: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("mark %s: %w", m.ID, ErrMarkExists)
	}

	metrics.IncrementActiveMarks(redisBackend)
	r.logger.WithFields(logrus.Fields{
		"mark_id":  m.ID,
		"name":     m.Name,
		"timecode": m.Timecode,
		"rate":     m.Rate.String(),
	}).Info("Mark created")

	return nil
}

// Get retrieves a mark by ID
func (r *RedisStore) Get(ctx context.Context, id string) (*Mark, error) {
	defer observe("get", time.Now())

	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to get mark: %w", err)
	}

	var m Mark
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mark: %w", err)
	}
	return &m, nil
}

// List returns every mark ordered by ticks
func (r *RedisStore) List(ctx context.Context) ([]*Mark, error) {
	defer observe("list", time.Now())
	return r.scan(ctx, "-inf", "+inf")
}

// Range returns the marks whose ticks fall within [from, to]
func (r *RedisStore) Range(ctx context.Context, from, to uint64) ([]*Mark, error) {
	defer observe("range", time.Now())
	if from > to {
		return []*Mark{}, nil
	}
	return r.scan(ctx, strconv.FormatUint(from, 10), strconv.FormatUint(to, 10))
}

func (r *RedisStore) scan(ctx context.Context, lo, hi string) ([]*Mark, error) {
	res, err := rangeScript.Run(ctx, r.client, []string{r.indexKey()}, r.prefix, lo, hi).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type from script")
	}

	out := make([]*Mark, 0, len(values))
	for _, val := range values {
		data, ok := val.(string)
		if !ok {
			r.logger.Warn("Invalid data type in mark index result")
			continue
		}

		var m Mark
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			r.logger.WithError(err).Warn("Failed to unmarshal mark")
			continue
		}
		out = append(out, &m)
	}

	sortMarks(out)
	return out, nil
}

// Update replaces an existing mark, keeping its creation time
func (r *RedisStore) Update(ctx context.Context, m *Mark) error {
	defer observe("update", time.Now())

	existing, err := r.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	if err := m.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mark: %w", err)
	}

	updated, err := updateScript.Run(ctx, r.client,
		[]string{r.key(m.ID), r.indexKey()},
		data, r.ttl.Milliseconds(), strconv.FormatUint(m.Ticks, 10), m.ID).Int()
	if err != nil {
		return fmt.Errorf("failed to update mark: %w", err)
	}
	if updated == 0 {
		// expired between the read and the write
		return notFound(m.ID)
	}

	r.logger.WithField("mark_id", m.ID).Debug("Mark updated")
	return nil
}

// Delete removes a mark
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	defer observe("delete", time.Now())

	deleted, err := deleteScript.Run(ctx, r.client, []string{r.key(id), r.indexKey()}, id).Int()
	if err != nil {
		return fmt.Errorf("failed to delete mark: %w", err)
	}
	if deleted == 0 {
		return notFound(id)
	}

	metrics.DecrementActiveMarks(redisBackend)
	r.logger.WithField("mark_id", id).Info("Mark deleted")
	return nil
}

// Count returns the number of indexed marks. Expired marks are counted
// until the next List or Range prunes them.
func (r *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count marks: %w", err)
	}
	metrics.SetActiveMarks(redisBackend, int(n))
	return int(n), nil
}

// Ping checks the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
