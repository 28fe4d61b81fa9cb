package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Revenue string `json:"revenue"`
	Items   int    `json:"items"`
}

func newTestCache(t *testing.T) (*RedisReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisReportCacheFromClient(client), mr
}

func TestRedisReportCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var got payload
	hit, err := c.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "dashboard", payload{Revenue: "450", Items: 30}, time.Minute))

	hit, err = c.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Revenue: "450", Items: 30}, got)
}

func TestRedisReportCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dashboard", payload{Items: 1}, time.Minute))
	require.NoError(t, c.Invalidate(ctx))

	var got payload
	hit, err := c.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "dashboard", payload{Items: 2}, time.Minute))
	hit, err = c.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, got.Items)
}

func TestRedisReportCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dashboard", payload{Items: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got payload
	hit, err := c.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNoopNeverHits(t *testing.T) {
	var c ReportCache = Noop{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", payload{}, time.Minute))
	hit, err := c.Get(ctx, "k", &payload{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(ctx))
}
