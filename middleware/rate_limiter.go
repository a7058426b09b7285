package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"phishlab/utils"
)

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

// RateLimitConfig configures a per-client token bucket
type RateLimitConfig struct {
	Requests int
	Per      time.Duration
	// KeyFunc groups requests into buckets; defaults to the client IP
	KeyFunc func(*fiber.Ctx) string
	// Next skips the limiter when it returns true
	Next func(*fiber.Ctx) bool
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one bucket per key. Idle buckets are dropped while
// serving requests, so no background goroutine outlives the handler.
type limiterStore struct {
	mu        sync.Mutex
	clients   map[string]*limitedClient
	every     time.Duration
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(requests int, per time.Duration) *limiterStore {
	return &limiterStore{
		clients:   make(map[string]*limitedClient),
		every:     per / time.Duration(requests),
		burst:     requests,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *limiterStore) allow(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= sweepEvery {
		s.sweepLocked(now)
	}

	cl, exists := s.clients[key]
	if !exists {
		cl = &limitedClient{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (s *limiterStore) sweepLocked(now time.Time) {
	for key, cl := range s.clients {
		if now.Sub(cl.lastSeen) > idleAfter {
			delete(s.clients, key)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimiter creates a rate limiting middleware allowing requests per
// duration for each client IP.
func RateLimiter(requests int, duration time.Duration) fiber.Handler {
	return NewRateLimiter(RateLimitConfig{Requests: requests, Per: duration})
}

// NewRateLimiter creates a rate limiting middleware from cfg
func NewRateLimiter(cfg RateLimitConfig) fiber.Handler {
	if cfg.Requests <= 0 {
		cfg.Requests = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}
	return rateLimitHandler(cfg, newLimiterStore(cfg.Requests, cfg.Per))
}

func rateLimitHandler(cfg RateLimitConfig, store *limiterStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		key := cfg.KeyFunc(c)
		if !store.allow(key) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(store.every.Seconds())+1))
			utils.Log.Warn("Rate limit exceeded for %s on %s", key, c.Path())
			return utils.NewAppError(fiber.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
		}

		return c.Next()
	}
}
