package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/storefront/pkg/logger"
	appredis "github.com/ikkim/storefront/pkg/redis"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore stores every key with ttl; zero ttl means no expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if appredis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read key from Redis", err, map[string]interface{}{
			"key": key,
		})
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		logger.Error("Failed to write key to Redis", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
