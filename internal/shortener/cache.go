package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL    = time.Hour
	DefaultCachePrefix = "link:"
)

// Cache holds resolved links keyed by short code. A miss is reported with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, shortCode string) (link Link, ok bool, err error)
	Set(ctx context.Context, link Link) error
	Ping(ctx context.Context) error
	Close() error
}

// CacheStats counts cache outcomes since the cache was created.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Errors uint64 `json:"errors"`
}

// RedisCache is a Cache stored in Redis as JSON values with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	errs   atomic.Uint64
}

// RedisCacheConfig holds configuration for the Redis cache.
type RedisCacheConfig struct {
	Prefix string
	TTL    time.Duration
}

type cachedLink struct {
	ID          uuid.UUID `json:"id"`
	ShortCode   string    `json:"code"`
	OriginalURL string    `json:"url"`
	OwnerID     uuid.UUID `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRedisCache wraps client. The cache owns the client and closes it on Close.
func NewRedisCache(client redis.UniversalClient, config *RedisCacheConfig) *RedisCache {
	if config == nil {
		config = &RedisCacheConfig{}
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(shortCode string) string {
	return c.prefix + shortCode
}

func (c *RedisCache) Get(ctx context.Context, shortCode string) (Link, bool, error) {
	data, err := c.client.Get(ctx, c.key(shortCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return Link{}, false, nil
	}
	if err != nil {
		c.errs.Add(1)
		return Link{}, false, fmt.Errorf("cache get: %w", err)
	}

	var v cachedLink
	if err := json.Unmarshal(data, &v); err != nil {
		c.errs.Add(1)
		return Link{}, false, fmt.Errorf("cache unmarshal: %w", err)
	}

	c.hits.Add(1)
	return Link{
		ID:          v.ID,
		ShortCode:   v.ShortCode,
		OriginalURL: v.OriginalURL,
		OwnerID:     v.OwnerID,
		CreatedAt:   v.CreatedAt,
	}, true, nil
}

func (c *RedisCache) Set(ctx context.Context, link Link) error {
	data, err := json.Marshal(cachedLink{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		OwnerID:     link.OwnerID,
		CreatedAt:   link.CreatedAt,
	})
	if err != nil {
		c.errs.Add(1)
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, c.key(link.ShortCode), data, c.ttl).Err(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errs.Load(),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
