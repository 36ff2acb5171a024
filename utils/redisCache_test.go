package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedJSON(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, GetCachedJSON(ctx, rdb, "stats:summary", &out))

	SetCachedJSON(ctx, rdb, "stats:summary", map[string]int{"total": 3}, time.Minute)
	require.True(t, GetCachedJSON(ctx, rdb, "stats:summary", &out))
	assert.Equal(t, 3, out["total"])

	mr.FastForward(2 * time.Minute)
	assert.False(t, GetCachedJSON(ctx, rdb, "stats:summary", &out))

	require.NoError(t, mr.Set("stats:broken", "{"))
	assert.False(t, GetCachedJSON(ctx, rdb, "stats:broken", &out))

	assert.False(t, GetCachedJSON(ctx, nil, "stats:summary", &out))
}

func TestInvalidateCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("stats:summary", "1"))
	require.NoError(t, mr.Set("stats:daily", "2"))
	require.NoError(t, mr.Set("other:key", "3"))

	require.NoError(t, InvalidateCache(ctx, rdb, "stats"))
	assert.False(t, mr.Exists("stats:summary"))
	assert.False(t, mr.Exists("stats:daily"))
	assert.True(t, mr.Exists("other:key"))

	assert.NoError(t, InvalidateCache(ctx, nil, "stats"))
}
