package redis

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func configFor(t *testing.T, addr string) Config {
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return Config{Host: host, Port: port, PoolSize: 2}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), configFor(t, mr.Addr()), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
	assert.NoError(t, client.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(t, mr.Addr())
	mr.Close()

	client, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: "6379"}.Addr())
}

func TestClient_PingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), configFor(t, mr.Addr()), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "second close returns the first result")
	assert.Error(t, client.Ping(context.Background()))
}

func TestConfig_Options(t *testing.T) {
	opts := Config{Host: "h", Port: "1", MinIdleConn: 50}.options()
	assert.Equal(t, defaultPool, opts.PoolSize)
	assert.Equal(t, defaultPool, opts.MinIdleConns)
	assert.Equal(t, "h:1", opts.Addr)
}
