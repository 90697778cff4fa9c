package redis

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectTimeout = 5 * time.Second
	ioTimeout      = 3 * time.Second
	defaultPool    = 10
)

// Config holds Redis connection configuration.
type Config struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) options() *redis.Options {
	pool := c.PoolSize
	if pool <= 0 {
		pool = defaultPool
	}
	minIdle := c.MinIdleConn
	if minIdle > pool {
		minIdle = pool
	}
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   c.MaxRetries,
		PoolSize:     pool,
		MinIdleConns: minIdle,
		DialTimeout:  connectTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolTimeout:  ioTimeout + time.Second,
	}
}

// Client is the connection shared by the rate limiter.
type Client struct {
	*redis.Client
	log       *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewClient dials Redis and pings it once, bounded by ctx and connectTimeout.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	opts := cfg.options()
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	log = log.Named("redis").With(zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	log.Info("Redis connected", zap.Int("pool_size", opts.PoolSize))

	return &Client{Client: rdb, log: log}, nil
}

// Ping reports whether Redis currently answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Close releases the pool. Later calls return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.log.Info("Closing Redis connection")
		c.closeErr = c.Client.Close()
	})
	return c.closeErr
}
