package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_ExclusiveUntilReleased(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "investment:1")
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "investment:1")
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.Acquire(ctx, "investment:2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire(ctx, "investment:1")
	require.NoError(t, err)
	again()
}

func TestRedis_ExclusiveUntilReleased(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	a := &Redis{Client: rdb}
	b := &Redis{Client: rdb}
	ctx := context.Background()

	release, err := a.Acquire(ctx, "investment:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:investment:1"))
	assert.Equal(t, DefaultTTL, mr.TTL("lock:investment:1"))

	_, err = b.Acquire(ctx, "investment:1")
	assert.ErrorIs(t, err, ErrHeld)

	release()
	assert.False(t, mr.Exists("lock:investment:1"))
	releaseB, err := b.Acquire(ctx, "investment:1")
	require.NoError(t, err)
	releaseB()
}

func TestRedis_ExpiredLeaseIsNotReleasedByOldHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	l := &Redis{Client: rdb, TTL: time.Second}
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "investment:1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := l.Acquire(ctx, "investment:1")
	require.NoError(t, err)
	stale()
	assert.True(t, mr.Exists("lock:investment:1"))
	fresh()
	assert.False(t, mr.Exists("lock:investment:1"))
}
