package limiter

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/facevote/internal/common"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// attempts reads the raw counter; a missing key counts as zero.
func attempts(t *testing.T, mr *miniredis.Miniredis, key string) int {
	t.Helper()
	if !mr.Exists(attemptKey(key)) {
		return 0
	}
	v, err := mr.Get(attemptKey(key))
	require.NoError(t, err)
	n, err := strconv.Atoi(v)
	require.NoError(t, err)
	return n
}

func TestRedisLimiter_AllowUpToLimit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "10.0.0.1"), "attempt %d", i+1)
	}
	assert.ErrorIs(t, l.Allow(ctx, "10.0.0.1"), common.ErrRateLimited)

	// other keys have their own budget
	assert.NoError(t, l.Allow(ctx, "10.0.0.2"))

	assert.Equal(t, 4, attempts(t, mr, "10.0.0.1"))
}

func TestRedisLimiter_WindowExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	require.ErrorIs(t, l.Allow(ctx, "k"), common.ErrRateLimited)

	assert.Equal(t, time.Minute, mr.TTL(attemptKey("k")))
	mr.FastForward(time.Minute + time.Second)

	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestRedisLimiter_WindowNotExtended(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 5, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	mr.FastForward(20 * time.Second)
	require.NoError(t, l.Allow(ctx, "k"))

	assert.Equal(t, 40*time.Second, mr.TTL(attemptKey("k")))
}

func TestRedisLimiter_RestoresMissingTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 3, time.Minute)
	ctx := context.Background()

	// counter left behind without an expiry, e.g. after a failed EXPIRE
	require.NoError(t, mr.Set(attemptKey("k"), "3"))
	require.Zero(t, mr.TTL(attemptKey("k")))

	assert.ErrorIs(t, l.Allow(ctx, "k"), common.ErrRateLimited)
	assert.Equal(t, time.Minute, mr.TTL(attemptKey("k")))

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestRedisLimiter_Reset(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	require.NoError(t, l.Reset(ctx, "k"))

	assert.Zero(t, attempts(t, mr, "k"))
	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 1, time.Minute)
	mr.Close()

	err := l.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
	assert.NotErrorIs(t, err, common.ErrRateLimited)
}

func TestNop(t *testing.T) {
	var l Limiter = Nop{}
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Allow(context.Background(), "k"))
	}
	assert.NoError(t, l.Reset(context.Background(), "k"))
}
