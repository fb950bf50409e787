// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "bimiready:dns:"

// RedisCache shares answer sets between server replicas.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// DialRedis parses a redis:// URL and verifies the server answers.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Backend() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, key string) ([]Answer, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("Redis cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var answers []Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		slog.Debug("Redis cache entry undecodable", "key", key, "error", err)
		return nil, false
	}
	return answers, true
}

func (c *RedisCache) Set(ctx context.Context, key string, answers []Answer, ttl time.Duration) {
	data, err := json.Marshal(answers)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		slog.Debug("Redis cache write failed", "key", key, "error", err)
	}
}
