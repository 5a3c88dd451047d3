// Package limiter bounds how many face recognition attempts one client may
// start within a fixed window. Every attempt occupies the camera for the
// whole capture duration, so unbounded retries are a cheap way to starve
// the host.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/facevote/internal/common"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

// Limiter decides whether another attempt for key may start.
type Limiter interface {
	// Allow records one attempt and returns common.ErrRateLimited when the
	// budget for the current window is exhausted.
	Allow(ctx context.Context, key string) error
	// Reset clears the counter, e.g. after a successful recognition.
	Reset(ctx context.Context, key string) error
}

// RedisLimiter is a fixed-window counter stored in Redis.
type RedisLimiter struct {
	redis  redis.UniversalClient
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{redis: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	k := attemptKey(key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	count := incr.Val()

	// A counter without a TTL is either new or lost its EXPIRE earlier.
	// Existing TTLs are left alone so the window stays fixed.
	if ttl.Val() < 0 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count > int64(l.limit) {
		return common.ErrRateLimited
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, attemptKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func attemptKey(key string) string {
	return "facevote:recognition:attempts:" + key
}

// Nop never limits. It is used when no Redis address is configured.
type Nop struct{}

func (Nop) Allow(context.Context, string) error { return nil }
func (Nop) Reset(context.Context, string) error { return nil }
