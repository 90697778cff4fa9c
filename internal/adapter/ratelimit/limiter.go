package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces token bucket keys in Redis.
const KeyPrefix = "ratelimit:tb:"

// bucketTTLSeconds bounds how long an idle bucket stays in Redis.
const bucketTTLSeconds = 60

// tokenBucket refills the bucket for the elapsed time and tries to take one token.
// KEYS[1] bucket key; ARGV rate, capacity, now (seconds, fractional).
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// Config holds token bucket settings.
type Config struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

// Limiter is a Redis-backed token bucket shared by the HTTP and gRPC servers.
type Limiter struct {
	client redis.UniversalClient
	config Config
	log    *zap.Logger
}

// New creates a Limiter. A nil client disables limiting.
func New(client redis.UniversalClient, config Config, log *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		config: config,
		log:    log,
	}
}

// Config returns the limiter settings.
func (l *Limiter) Config() Config {
	return l.config
}

// Enabled reports whether requests are actually being limited.
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.config.Enabled
}

// Allow takes one token from the bucket identified by key.
// Redis failures are logged and the request is allowed.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if !l.Enabled() {
		return true
	}

	now, err := l.client.Time(ctx).Result()
	if err != nil {
		l.log.Warn("rate limiter redis error, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}

	allowed, err := tokenBucket.Run(ctx, l.client, []string{KeyPrefix + key},
		l.config.RequestsPerSecond,
		l.config.BurstCapacity,
		seconds(now),
		bucketTTLSeconds,
	).Int64()
	if err != nil {
		l.log.Warn("rate limiter redis error, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}

	if allowed == 0 {
		l.log.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Float64("rps", l.config.RequestsPerSecond),
			zap.Int("burst", l.config.BurstCapacity),
		)
		return false
	}
	return true
}

func seconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
