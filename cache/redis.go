package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hsato/toki/log"
	"github.com/hsato/toki/record"
)

var logger = log.Logger()

// RedisCache caches assembled day records behind a Redis client.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Entry wraps a cached record.DayRecord with its insertion time, so
// staleness can be double-checked beyond Redis's own TTL eviction.
type Entry struct {
	Day      *record.DayRecord `json:"day"`
	CachedAt time.Time         `json:"cached_at"`
}

// NewRedisCache creates a Redis-backed cache and verifies connectivity.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache connected successfully", "addr", addr, "db", db, "ttl", ttl)

	return &RedisCache{client: rdb, ttl: ttl}, nil
}

// GenerateCacheKey derives a cache key from a civil date, observer
// location, and the ephemeris backing the computation (different
// ephemerides may resolve borderline leap-month or term dates differently).
func (r *RedisCache) GenerateCacheKey(date, ephemeris string, lat, lon float64) string {
	return fmt.Sprintf("toki:day:%s:%s:%.4f:%.4f", date, ephemeris, lat, lon)
}

// Get retrieves a cached day record. A nil Entry with no error means a
// cache miss.
func (r *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		logger.Error("Failed to unmarshal cached entry", "key", key, "error", err)
		r.client.Del(ctx, key)
		return nil, nil
	}

	if time.Since(entry.CachedAt) > r.ttl {
		logger.Debug("Cache entry expired", "key", key, "cached_at", entry.CachedAt)
		r.client.Del(ctx, key)
		return nil, nil
	}

	logger.Debug("Cache hit", "key", key, "cached_at", entry.CachedAt)
	return &entry, nil
}

// Set stores a day record in cache under key.
func (r *RedisCache) Set(ctx context.Context, key string, day *record.DayRecord) error {
	entry := &Entry{Day: day, CachedAt: time.Now()}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}

	logger.Debug("Cache set", "key", key, "ttl", r.ttl)
	return nil
}

// GetBatch retrieves multiple cached entries, skipping misses and corrupt
// entries.
func (r *RedisCache) GetBatch(ctx context.Context, keys []string) (map[string]*Entry, error) {
	if len(keys) == 0 {
		return make(map[string]*Entry), nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))

	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to execute batch get: %w", err)
	}

	result := make(map[string]*Entry)

	for i, cmd := range cmds {
		val, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			logger.Error("Failed to get batch cache key", "key", keys[i], "error", err)
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			logger.Error("Failed to unmarshal batch cached entry", "key", keys[i], "error", err)
			continue
		}

		if time.Since(entry.CachedAt) <= r.ttl {
			result[keys[i]] = &entry
		}
	}

	logger.Debug("Batch cache operation", "requested", len(keys), "hits", len(result))
	return result, nil
}

// SetBatch stores multiple entries in cache in a single pipeline.
func (r *RedisCache) SetBatch(ctx context.Context, days map[string]*record.DayRecord) error {
	if len(days) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	now := time.Now()

	for key, day := range days {
		entry := &Entry{Day: day, CachedAt: now}

		jsonData, err := json.Marshal(entry)
		if err != nil {
			logger.Error("Failed to marshal batch cache entry", "key", key, "error", err)
			continue
		}

		pipe.Set(ctx, key, jsonData, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch set: %w", err)
	}

	logger.Debug("Batch cache set", "count", len(days), "ttl", r.ttl)
	return nil
}

// Delete removes a cache entry.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Clear removes all toki cache entries.
func (r *RedisCache) Clear(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, "toki:day:*").Result()
	if err != nil {
		return fmt.Errorf("failed to get cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	logger.Info("Cache cleared", "keys_deleted", len(keys))
	return nil
}

// GetStats returns cache statistics.
func (r *RedisCache) GetStats(ctx context.Context) (map[string]interface{}, error) {
	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis stats: %w", err)
	}

	keys, err := r.client.Keys(ctx, "toki:day:*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count cache keys: %w", err)
	}

	return map[string]interface{}{
		"cache_keys_count": len(keys),
		"ttl_seconds":      int(r.ttl.Seconds()),
		"redis_info":       info,
	}, nil
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// HealthCheck performs a health check on the cache.
func (r *RedisCache) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
