package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(max, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_Burst(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d refused, want allowed", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth request allowed, want refused")
	}
	if !rl.Allow("b") {
		t.Error("b should have its own bucket")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	rl.Allow("a")
	rl.Allow("a")
	if rl.Allow("a") {
		t.Fatal("bucket should be empty")
	}

	clock.advance(30 * time.Second)
	if !rl.Allow("a") {
		t.Error("one token should have refilled after half the window")
	}
	if rl.Allow("a") {
		t.Error("only one token should have refilled")
	}

	clock.advance(time.Hour)
	rl.Allow("a")
	rl.Allow("a")
	if rl.Allow("a") {
		t.Error("refill must not exceed capacity")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	rl.Allow("idle")
	clock.advance(10 * time.Minute)
	rl.Allow("busy")

	if n := rl.Cleanup(5 * time.Minute); n != 1 {
		t.Errorf("Cleanup dropped %d buckets, want 1", n)
	}
	if _, ok := rl.buckets["busy"]; !ok {
		t.Error("busy bucket was dropped")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Hour)
	app := fiber.New()
	app.Use(rl.Handler())
	app.Get("/api/x", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/x", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want exempt", resp.StatusCode)
	}
}

func TestRateLimiter_ByUser(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Hour)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userId", c.Get("X-User"))
		return c.Next()
	})
	app.Post("/join", rl.HandlerFor(ByUser, "slow down"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})

	send := func(user string) int {
		req := httptest.NewRequest("POST", "/join", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	if got := send("alice"); got != http.StatusCreated {
		t.Errorf("alice first = %d", got)
	}
	if got := send("alice"); got != http.StatusTooManyRequests {
		t.Errorf("alice second = %d, want 429", got)
	}
	if got := send("bob"); got != http.StatusCreated {
		t.Errorf("bob = %d, want own budget", got)
	}
	// Anonymous callers are left to the auth middleware.
	if got := send(""); got != http.StatusCreated {
		t.Errorf("anonymous = %d", got)
	}
}
