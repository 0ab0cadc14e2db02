package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter: the first hit of a key opens the
// window, later hits only increment it.
type RateLimiter struct {
	c *redis.Client
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Allow counts one hit on key and reports whether it is within limit.
// The window TTL is set once and never extended.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	if limit <= 0 || window <= 0 {
		return false, 0, errors.Errorf("ratelimit %s: limit and window must be positive", key)
	}
	pipe := rl.c.TxPipeline()
	pipe.SetNX(ctx, key, 0, window)
	hits := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrapf(err, "ratelimit %s", key)
	}
	n := hits.Val()
	return n <= limit, n, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
