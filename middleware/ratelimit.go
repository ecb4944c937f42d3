// middleware/ratelimit.go
package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// bucket is a token bucket refilled continuously at rate tokens per second.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastSeen time.Time
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastSeen).Seconds() * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastSeen)
}

// KeyFunc picks the rate limit key for a request. An empty key skips the
// limiter.
type KeyFunc func(c *fiber.Ctx) string

// ByIP keys requests by client address.
func ByIP(c *fiber.Ctx) string { return c.IP() }

// ByUser keys requests by the authenticated caller. It must run after
// Required.
func ByUser(c *fiber.Ctx) string {
	id, _ := c.Locals("userId").(string)
	return id
}

// RateLimiter allows maxRequests per window for each key, with bursts up to
// maxRequests.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	capacity float64
	rate     float64
	now      func() time.Time
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(maxRequests),
		rate:     float64(maxRequests) / window.Seconds(),
		now:      time.Now,
	}
}

// Allow spends one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, capacity: rl.capacity, rate: rl.rate, lastSeen: now}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	return b.take(now)
}

// Cleanup drops buckets idle for longer than maxIdle and returns how many
// were dropped.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	dropped := 0
	for key, b := range rl.buckets {
		if b.idleSince(now) > maxIdle {
			delete(rl.buckets, key)
			dropped++
		}
	}
	return dropped
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(30 * time.Minute)
			case <-stop:
				return
			}
		}
	}()
}

// Handler limits requests per client IP. Health checks and websocket
// upgrades are exempt.
func (rl *RateLimiter) Handler() fiber.Handler {
	return rl.HandlerFor(ByIP, "Rate limit exceeded. Please try again later.")
}

// HandlerFor limits requests by key, answering 429 with message once a key
// runs dry.
func (rl *RateLimiter) HandlerFor(key KeyFunc, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/health" || strings.HasPrefix(path, "/ws/") {
			return c.Next()
		}

		k := key(c)
		if k == "" || rl.Allow(k) {
			return c.Next()
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
