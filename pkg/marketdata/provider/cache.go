package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long fetched bars stay cached.
const DefaultCacheTTL = time.Hour

// Cache stores fetched bar sequences by key.
type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (bars []types.Bar, ok bool, err error)
	Set(ctx context.Context, key string, bars []types.Bar, ttl time.Duration) error
}

// CacheKey identifies a request. Two requests with the same key return the same bars.
func CacheKey(source string, req Request) string {
	return fmt.Sprintf("bars:%s:%s:%s:%s:%s:%s", source, req.DataType, req.Symbol,
		req.Start.Format(types.DateLayout), req.End.Format(types.DateLayout), req.Interval.OrDefault())
}

type memoryEntry struct {
	bars      []types.Bar
	expiresAt time.Time
}

// MemoryCache is a process local Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]types.Bar, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()

		return nil, false, nil
	}

	return append([]types.Bar(nil), entry.bars...), true, nil
}

// Set stores a copy of bars. A ttl of zero never expires.
func (c *MemoryCache) Set(_ context.Context, key string, bars []types.Bar, ttl time.Duration) error {
	entry := memoryEntry{bars: append([]types.Bar(nil), bars...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()

	return nil
}

// RedisCacheConfig configures the Redis connection.
type RedisCacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisCache stores bars as JSON values.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache. The connection is established lazily.
func NewRedisCache(cfg RedisCacheConfig) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]types.Bar, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var bars []types.Bar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, false, fmt.Errorf("redis decode %s: %w", key, err)
	}

	return bars, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, bars []types.Bar, ttl time.Duration) error {
	raw, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedProvider serves repeated requests from a Cache. Cache failures are
// logged and fall through to the wrapped provider.
type CachedProvider struct {
	inner  Provider
	cache  Cache
	source string
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps inner. source namespaces the cache keys.
func NewCachedProvider(inner Provider, cache Cache, source string, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CachedProvider{inner: inner, cache: cache, source: source, ttl: ttl, logger: log}
}

func (p *CachedProvider) FetchBars(ctx context.Context, req Request) ([]types.Bar, error) {
	key := CacheKey(p.source, req)

	bars, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Bar cache read failed", zap.String("key", key), zap.Error(err))
	}

	if ok {
		p.logger.Debug("Bar cache hit", zap.String("key", key), zap.Int("bars", len(bars)))

		return bars, nil
	}

	bars, err = p.inner.FetchBars(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, bars, p.ttl); err != nil {
		p.logger.Warn("Bar cache write failed", zap.String("key", key), zap.Error(err))
	}

	return bars, nil
}
