package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisWindowScript counts requests per window atomically. INCR and EXPIRE
// run as a single unit on the server, so concurrent requests hitting
// different service instances cannot race on the counter.
const redisWindowScript = `
	local key = KEYS[1]
	local ttl = tonumber(ARGV[1])

	local current = redis.call('INCR', key)

	if current == 1 then
		redis.call('EXPIRE', key, ttl)
	end

	return current
`

// RedisLimiter implements distributed rate limiting on fixed time windows
// stored in Redis. Use it when the service runs on more than one instance
// and the per-client limit has to be shared across all of them.
//
// Key format: "ratelimit:{ip}:{window}", expired automatically by TTL.
type RedisLimiter struct {
	client         *redis.Client
	ctx            context.Context
	requestsPerSec float64
	windowSize     time.Duration
}

// NewRedisLimiter connects to Redis and returns a limiter allowing
// requestsPerSecond per client IP. Fractional rates widen the window:
// 0.2 req/s becomes one request per five-second window.
func NewRedisLimiter(addr, password string, db int, requestsPerSecond float64) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	windowSize := time.Second
	if requestsPerSecond < 1.0 {
		windowSize = time.Duration(float64(time.Second) / requestsPerSecond)
	}

	return &RedisLimiter{
		client:         client,
		ctx:            ctx,
		requestsPerSec: requestsPerSecond,
		windowSize:     windowSize,
	}, nil
}

// Allow reports whether a request from the given IP should be let through.
// On Redis errors it fails open rather than blocking legitimate traffic.
func (rl *RedisLimiter) Allow(ip string) bool {
	now := time.Now()
	windowSeconds := int64(rl.windowSize.Seconds())
	window := now.Unix() / windowSeconds
	key := fmt.Sprintf("ratelimit:%s:%d", ip, window)

	// TTL of two windows keeps keys from outliving their usefulness.
	ttl := int(rl.windowSize.Seconds()) * 2

	result, err := rl.client.Eval(rl.ctx, redisWindowScript, []string{key}, ttl).Result()
	if err != nil {
		return true
	}

	count, ok := result.(int64)
	if !ok {
		return true
	}

	limit := int64(math.Ceil(rl.requestsPerSec * rl.windowSize.Seconds()))
	return count <= limit
}

// Close closes the Redis connection.
func (rl *RedisLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
