package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscache "github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces cache entries in a shared Redis deployment.
const keyPrefix = "pokemon/"

// RedisStore is a cache backend with Redis-native TTL enforcement and a small
// in-process TinyLFU layer in front.
type RedisStore struct {
	data *rediscache.Cache
}

// NewRedisStore connects to Redis using a redis:// URL and verifies the
// connection before returning.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	data := rediscache.New(&rediscache.Options{
		Redis:      rdb,
		LocalCache: rediscache.NewTinyLFU(10_000, time.Minute),
	})

	return &RedisStore{data: data}, nil
}

// Set saves or overwrites a value with an optional TTL, enforced by Redis.
func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if ttl <= 0 {
		// go-redis/cache treats a negative TTL as "no expiry".
		ttl = -1
	}

	return s.data.Set(&rediscache.Item{
		Ctx:   ctx,
		Key:   keyPrefix + key,
		Value: string(jsonData),
		TTL:   ttl,
	})
}

// Get returns the stored value, with misses reported as (nil, nil).
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var val string
	err := s.data.Get(ctx, keyPrefix+key, &val)
	if err == rediscache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	return json.RawMessage(val), nil
}
