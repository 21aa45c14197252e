// Package resultcache stores finished summaries keyed by a hash of the request, so
// that identical requests skip the model entirely.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/resilience/circuitbreaker"
)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "summarize-pro:summary:"

// Cache stores summaries. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*entity.Summary, bool, error)
	Set(ctx context.Context, key string, s *entity.Summary) error
	Clear(ctx context.Context) (int, error)
}

// Key derives the cache key of a summarization request.
func Key(class entity.ContentClass, style entity.Style, prompt, text string) string {
	h := sha256.New()
	for _, part := range []string{string(class), string(style), prompt, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RedisCache is a Cache backed by Redis with JSON values and a fixed TTL.
type RedisCache struct {
	client         redis.UniversalClient
	ttl            time.Duration
	prefix         string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *RedisCache) { c.prefix = prefix }
}

// NewRedisCache wraps client. ttl <= 0 stores entries without expiry.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, opts ...Option) *RedisCache {
	c := &RedisCache{
		client:         client,
		ttl:            ttl,
		prefix:         DefaultPrefix,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ResultCacheConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*entity.Summary, bool, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return []byte(nil), nil
		}
		return data, err
	})
	if err != nil {
		return nil, false, fmt.Errorf("result cache get: %w", err)
	}

	data := result.([]byte)
	if data == nil {
		return nil, false, nil
	}
	var s entity.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("result cache decode: %w", err)
	}
	return &s, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, s *entity.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("result cache encode: %w", err)
	}
	_, err = c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("result cache set: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix and returns how many were removed.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	var removed int
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("result cache clear: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("result cache scan: %w", err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("result cache clear: %w", err)
	}
	return removed, nil
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Noop never stores anything. Used when caching is disabled.
type Noop struct{}

// Get implements Cache.
func (Noop) Get(context.Context, string) (*entity.Summary, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Noop) Set(context.Context, string, *entity.Summary) error { return nil }

// Clear implements Cache.
func (Noop) Clear(context.Context) (int, error) { return 0, nil }
