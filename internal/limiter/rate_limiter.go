package limiter

import (
	"sync"
	"time"
)

// Limiter is the interface that all rate limiters implement.
// It allows swapping between the in-memory and Redis implementations.
type Limiter interface {
	// Allow reports whether a request from the given client IP should be
	// let through. False means the client exceeded its rate.
	Allow(ip string) bool

	// Close cleans up any resources (Redis connections, etc.)
	Close() error
}

// TokenBucket is a token bucket for a single client. Tokens refill at a
// fixed rate; each request consumes one; an empty bucket means the request
// is rejected.
type TokenBucket struct {
	tokens         float64
	capacity       float64 // maximum tokens (burst size)
	refillRate     float64 // tokens added per second
	lastRefillTime time.Time
	mu             sync.Mutex // protects tokens and lastRefillTime
}

// NewTokenBucket creates a token bucket that refills at rate tokens per
// second up to capacity. The bucket starts full, with at least one token so
// fractional rates (e.g. 0.2 req/s) still admit the first request.
func NewTokenBucket(rate float64, capacity float64) *TokenBucket {
	return &TokenBucket{
		tokens:         max(capacity, 1.0),
		capacity:       max(capacity, 1.0),
		refillRate:     rate,
		lastRefillTime: time.Now(),
	}
}

// Allow consumes one token if available and reports whether it could.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

// refill adds tokens for the time elapsed since the last refill.
// Must be called with the mutex held.
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()

	tb.tokens = min(tb.tokens+elapsed*tb.refillRate, tb.capacity)
	tb.lastRefillTime = now
}

// MemoryLimiter manages one token bucket per client IP. It is suitable for
// single-server deployments; multi-server setups should use the Redis
// limiter so all instances share the same counters.
type MemoryLimiter struct {
	buckets     sync.Map // map[string]*TokenBucket keyed by IP address
	rate        float64
	capacity    float64
	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter creates an in-memory rate limiter allowing
// requestsPerSecond per client IP (fractional rates are fine, e.g. 0.2
// means one request per five seconds).
func NewMemoryLimiter(requestsPerSecond float64) *MemoryLimiter {
	return &MemoryLimiter{
		rate:        requestsPerSecond,
		capacity:    requestsPerSecond, // burst up to one second's worth
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request from the given IP should be let through.
func (rl *MemoryLimiter) Allow(ip string) bool {
	bucket := rl.getBucket(ip)
	allowed := bucket.Allow()

	// Periodic cleanup keeps long-gone clients from accumulating buckets.
	rl.maybeCleanup()

	return allowed
}

// getBucket gets or creates the token bucket for an IP address.
func (rl *MemoryLimiter) getBucket(ip string) *TokenBucket {
	if value, ok := rl.buckets.Load(ip); ok {
		return value.(*TokenBucket)
	}

	// LoadOrStore handles two goroutines creating the same bucket at once.
	bucket := NewTokenBucket(rl.rate, rl.capacity)
	actual, _ := rl.buckets.LoadOrStore(ip, bucket)
	return actual.(*TokenBucket)
}

// maybeCleanup drops buckets that have been idle for over five minutes.
// Runs at most once per five minutes.
func (rl *MemoryLimiter) maybeCleanup() {
	rl.cleanupMu.Lock()
	defer rl.cleanupMu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}

	threshold := time.Now().Add(-5 * time.Minute)

	rl.buckets.Range(func(key, value interface{}) bool {
		bucket := value.(*TokenBucket)
		bucket.mu.Lock()
		lastAccess := bucket.lastRefillTime
		bucket.mu.Unlock()

		if lastAccess.Before(threshold) {
			rl.buckets.Delete(key)
		}

		return true
	})

	rl.lastCleanup = time.Now()
}

// Close satisfies the Limiter interface; the in-memory limiter holds no
// external resources.
func (rl *MemoryLimiter) Close() error {
	return nil
}
