// Package throttle locks out keys after repeated failures using Redis counters.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docvault/internal/domain/services"
)

// RedisLimiter counts failures per key in a fixed window. The window starts
// at the first failure; reaching maxAttempts locks the key until it expires.
type RedisLimiter struct {
	client      redis.Cmdable
	prefix      string
	maxAttempts int64
	window      time.Duration
}

var _ services.AttemptLimiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter namespaced by prefix
func NewRedisLimiter(client redis.Cmdable, prefix string, maxAttempts int, window time.Duration) *RedisLimiter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RedisLimiter{
		client:      client,
		prefix:      prefix,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + ":" + k
}

// Locked reports whether key has reached the failure threshold
func (l *RedisLimiter) Locked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(key)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read attempt counter: %w", err)
	}
	return n >= l.maxAttempts, nil
}

// RecordFailure increments the counter and starts the window on first use
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("increment attempt counter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("set attempt window: %w", err)
		}
	}
	return n >= l.maxAttempts, nil
}

// Reset clears the counter after a success
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("reset attempt counter: %w", err)
	}
	return nil
}
