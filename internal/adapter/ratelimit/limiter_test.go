package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	mr.SetTime(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestLimiter_BurstThenReject(t *testing.T) {
	client, _ := setupTestRedis(t)
	l := New(client, Config{RequestsPerSecond: 1, BurstCapacity: 3, Enabled: true}, zaptest.NewLogger(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "client-a"), "request %d", i)
	}
	assert.False(t, l.Allow(ctx, "client-a"))

	// buckets are per key
	assert.True(t, l.Allow(ctx, "client-b"))
}

func TestLimiter_Refill(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := New(client, Config{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true}, zaptest.NewLogger(t))
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "k"))
	require.True(t, l.Allow(ctx, "k"))
	require.False(t, l.Allow(ctx, "k"))

	mr.SetTime(time.Date(2026, 1, 1, 12, 0, 1, 0, time.UTC))

	assert.True(t, l.Allow(ctx, "k"))
	assert.True(t, l.Allow(ctx, "k"))
	assert.False(t, l.Allow(ctx, "k"))
}

func TestLimiter_BucketExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := New(client, Config{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))

	require.True(t, l.Allow(context.Background(), "k"))
	assert.True(t, mr.Exists(KeyPrefix+"k"))
	assert.Equal(t, bucketTTLSeconds*time.Second, mr.TTL(KeyPrefix+"k"))
}

func TestLimiter_Disabled(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := New(client, Config{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false}, zaptest.NewLogger(t))

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(context.Background(), "k"))
	}
	assert.False(t, mr.Exists(KeyPrefix+"k"))
}

func TestLimiter_NilSafe(t *testing.T) {
	var l *Limiter
	assert.False(t, l.Enabled())
	assert.True(t, l.Allow(context.Background(), "k"))

	noClient := New(nil, Config{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))
	assert.True(t, noClient.Allow(context.Background(), "k"))
}

func TestLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := New(client, Config{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))

	mr.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(context.Background(), "k"))
	}
}
