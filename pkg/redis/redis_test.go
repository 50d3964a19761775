package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondmaster/backend/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), JisiluRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, JisiluRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), JisiluRateLimit))
}

func TestKV_Disabled(t *testing.T) {
	kv := NewKV(disabledClient(t), "bondmaster")

	var dest map[string]string
	found, err := kv.Get(context.Background(), "score_config:default", &dest)
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, kv.Set(context.Background(), "k", "v", 0), ErrDisabled)
	assert.ErrorIs(t, kv.Delete(context.Background(), "k"), ErrDisabled)
}

func TestKV_Key(t *testing.T) {
	kv := NewKV(disabledClient(t), "bondmaster")
	assert.Equal(t, "bondmaster:score_config:default", kv.Key("score_config:default"))
}

// redisFromEnv connects to REDIS_ADDR (host:port) or skips
func redisFromEnv(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	host, port, _ := strings.Cut(addr, ":")
	client, err := New(&config.Config{Redis: config.RedisConfig{Host: host, Port: port, Enabled: true}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKV_RoundTrip(t *testing.T) {
	client := redisFromEnv(t)
	kv := NewKV(client, "bondmaster-test")
	ctx := context.Background()

	type doc struct {
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
	}
	require.NoError(t, kv.Set(ctx, "doc", doc{Name: "ytm", Weight: 2}, time.Minute))

	var got doc
	found, err := kv.Get(ctx, "doc", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc{Name: "ytm", Weight: 2}, got)

	require.NoError(t, kv.Delete(ctx, "doc"))
	found, err = kv.Get(ctx, "doc", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateLimiter_Window(t *testing.T) {
	client := redisFromEnv(t)
	limiter := NewRateLimiter(client, "bondmaster-test")
	cfg := RateLimitConfig{Key: "window-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Second}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}
