// Package cache wraps go-redis for estimator output (μ, Σ don't change
// between calls for the same ticker set within a TTL window) and the
// API's per-IP rate-limit counters. RebalanceResults themselves are
// not cached. Grounded on the
// teacher's pkg/cache/redis.go (JSON marshal over a typed client,
// ErrNotFound translated from redis.Nil).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintual/rebalancer/internal/config"
)

// ErrNotFound is returned when a key is absent from the cache.
var ErrNotFound = errors.New("cache: key not found")

// Client is a thin typed wrapper around *redis.Client.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis per cfg, verifying reachability with a
// short-lived ping before returning.
func NewClient(cfg config.CacheConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Set marshals value as JSON and stores it with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get unmarshals the value stored at key into dest.
func (c *Client) Get(ctx context.Context, key string, dest any) error {
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}
	return nil
}

// IncrWithTTL increments key by one and (re)sets its expiration to
// ttl in a single pipeline, returning the post-increment count.
// Grounded on the teacher pack's wallet-api rate-limit middleware,
// which pipelines INCR+EXPIRE the same way to count requests per
// fixed window without a separate cleanup pass — Redis expires the
// key itself once the window lapses.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("cache: incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Delete removes one or more keys.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
