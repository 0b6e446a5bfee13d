package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentesocial/internal/logging"
	"agentesocial/internal/metrics"
)

type payload struct {
	Total int      `json:"total"`
	Tags  []string `json:"tags"`
}

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New(prometheus.NewRegistry())
	return NewRedisCache(client, time.Minute, m, logging.Discard()), mr, m
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr, m := setupTestCache(t)
	ctx := context.Background()

	var got payload
	found, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetJSON(ctx, "k", payload{Total: 3, Tags: []string{"#a"}}))
	assert.True(t, mr.Exists("agentesocial:k"))

	found, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Total: 3, Tags: []string{"#a"}}, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestRedisCacheTTL(t *testing.T) {
	c, mr, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "short", payload{Total: 1}))
	mr.FastForward(time.Minute + time.Second)

	var got payload
	found, err := c.GetJSON(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	c, mr, _ := setupTestCache(t)
	require.NoError(t, mr.Set("agentesocial:bad", "{not json"))

	var got payload
	found, err := c.GetJSON(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisCacheDeletePrefix(t *testing.T) {
	c, mr, _ := setupTestCache(t)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		require.NoError(t, c.SetJSON(ctx, DashboardKey("u1", fmt.Sprintf("p%d", i)), payload{Total: i}))
	}
	require.NoError(t, c.SetJSON(ctx, DashboardKey("u2", "instagram"), payload{Total: 1}))

	require.NoError(t, c.DeletePrefix(ctx, DashboardPrefix("u1")))

	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.Exists("agentesocial:"+DashboardKey("u2", "instagram")))
}

func TestDashboardKey(t *testing.T) {
	assert.Equal(t, "insights:dashboard:u1:tiktok", DashboardKey("u1", "tiktok"))
	assert.Equal(t, "insights:dashboard:u1:", DashboardKey("u1", ""))
}
