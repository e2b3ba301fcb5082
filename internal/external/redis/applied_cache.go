package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AgriConnect/internal/domain/order"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "agri:payment:applied:"

var _ order.AppliedCache = (*AppliedCache)(nil)

// AppliedCache remembers applied dedup keys for ttl.
type AppliedCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewAppliedCache(rdb redis.UniversalClient, ttl time.Duration) *AppliedCache {
	return &AppliedCache{rdb: rdb, ttl: ttl}
}

// NewClient parses a redis:// URL and verifies the server answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *AppliedCache) Key(dedupKey string) string {
	return keyPrefix + dedupKey
}

func (c *AppliedCache) IsApplied(ctx context.Context, dedupKey string) (bool, error) {
	_, err := c.rdb.Get(ctx, c.Key(dedupKey)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}

func (c *AppliedCache) MarkApplied(ctx context.Context, dedupKey string) error {
	if err := c.rdb.SetNX(ctx, c.Key(dedupKey), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}
