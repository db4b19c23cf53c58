package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, "share:pw", max, window), mr
}

func TestRedisLimiter_LocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		locked, err := l.RecordFailure(ctx, "tok")
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d", i)
	}

	locked, err := l.Locked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = l.RecordFailure(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = l.Locked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, locked)

	other, err := l.Locked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, other, "keys are independent")
}

func TestRedisLimiter_WindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	locked, err := l.RecordFailure(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, time.Minute, mr.TTL("share:pw:tok"))

	mr.FastForward(61 * time.Second)

	locked, err = l.Locked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRedisLimiter_Reset(t *testing.T) {
	l, mr := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	_, err := l.RecordFailure(ctx, "tok")
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx, "tok"))
	assert.False(t, mr.Exists("share:pw:tok"))
}

func TestRedisLimiter_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, 2, time.Minute)
	mr.Close()

	_, err := l.Locked(context.Background(), "tok")
	assert.Error(t, err)
}
