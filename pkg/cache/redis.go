package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	Addr     string        // host:port
	Password string        // optional
	DB       int           // database index
	Prefix   string        // key prefix, e.g. "qrfetch:"
	TTL      time.Duration // 0 keeps entries until deleted
}

// RedisCache stores entries in Redis under <prefix>qrcode:<key>. It lets
// several qrfetch servers share fetched images.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}
	return NewRedisCacheFromClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) redisKey(key Key) string {
	return c.prefix + Dir + ":" + string(key)
}

// Exists reports whether the key is present. Connection errors count as a miss.
func (c *RedisCache) Exists(ctx context.Context, key Key) bool {
	n, err := c.client.Exists(ctx, c.redisKey(key)).Result()
	return err == nil && n > 0
}

// Read returns the stored bytes, or ErrNotFound.
func (c *RedisCache) Read(ctx context.Context, key Key) ([]byte, error) {
	data, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Write stores data, replacing any existing value.
func (c *RedisCache) Write(ctx context.Context, key Key, data []byte) error {
	if err := c.client.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the key.
func (c *RedisCache) Delete(ctx context.Context, key Key) error {
	if err := c.client.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
