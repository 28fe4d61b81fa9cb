package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "polycare:reports"

// RedisReportCache namespaces keys under a generation counter, so
// invalidation is a single INCR instead of a key scan.
type RedisReportCache struct {
	client *redis.Client
	prefix string
}

func NewRedisReportCache(addr string, password string, db int) *RedisReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisReportCacheFromClient(client)
}

func NewRedisReportCacheFromClient(client *redis.Client) *RedisReportCache {
	return &RedisReportCache{client: client, prefix: defaultPrefix}
}

func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisReportCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	full, err := c.key(ctx, key)
	if err != nil {
		return false, err
	}
	val, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	full, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, full, payload, ttl).Err()
}

func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *RedisReportCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisReportCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s", c.prefix, gen, key), nil
}
