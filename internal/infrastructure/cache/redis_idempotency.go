package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisIdempotencyStore claims keys with SETNX so only one checkout per key
// gets through, surviving API restarts for the TTL window.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key, checkoutID string, ttl time.Duration) (string, bool, error) {
	redisKey := "idempotency:" + key

	claimed, err := s.client.SetNX(ctx, redisKey, checkoutID, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if claimed {
		return "", true, nil
	}

	existing, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if err == redis.Nil {
			// Claim expired between SETNX and GET; treat as taken with
			// an unknown owner.
			return "", false, nil
		}
		return "", false, err
	}
	return existing, false, nil
}
