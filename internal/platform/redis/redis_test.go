package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/taskpipe/internal/cache"
	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/platform/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(config.CacheConfig{Addr: mr.Addr()})
	c := redis.New(client, time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, err := c.Get(ctx, "task:1")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Set(ctx, "task:1", []byte(`{"id":1}`), 10*time.Minute))

	got, err := c.Get(ctx, "task:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))
	assert.Equal(t, 10*time.Minute, mr.TTL("task:1"))
}

func TestCacheEntryExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.Set(ctx, "person:2", []byte("{}"), 10*time.Minute))

	mr.FastForward(10*time.Minute + time.Second)

	_, err := c.Get(ctx, "person:2")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.Set(ctx, "task:1", []byte("{}"), time.Minute))

	require.NoError(t, c.Delete(ctx, "task:1", "person:404"))
	assert.False(t, mr.Exists("task:1"))

	assert.NoError(t, c.Delete(ctx))
}

func TestCacheErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.SetError("ERR injected failure")

	_, err := c.Get(ctx, "task:1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrMiss)

	assert.Error(t, c.Set(ctx, "task:1", []byte("{}"), time.Minute))
	assert.Error(t, c.Delete(ctx, "task:1"))
	assert.Error(t, c.Ping(ctx))

	mr.SetError("")
	assert.NoError(t, c.Ping(ctx))
}
