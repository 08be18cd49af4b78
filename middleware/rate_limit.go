package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/metrics"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines per-endpoint rate limit settings.
type RateLimitConfig struct {
	// Rate is the number of requests allowed per second.
	Rate rate.Limit
	// Burst is the maximum burst size.
	Burst int
	// IdleTTL is how long an unused per-IP limiter is kept. Zero means 5 minutes.
	IdleTTL time.Duration
}

// PerMinute builds a config allowing n requests per minute.
func PerMinute(n float64, burst int) RateLimitConfig {
	return RateLimitConfig{Rate: rate.Limit(n / 60.0), Burst: burst}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides IP-based rate limiting for one endpoint group.
type RateLimiter struct {
	name string
	cfg  RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a per-IP rate limiter reported to metrics under name.
// Call Close to stop its cleanup loop.
func NewRateLimiter(name string, cfg RateLimitConfig) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	rl := &RateLimiter{
		name:     name,
		cfg:      cfg,
		limiters: make(map[string]*ipLimiter),
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getLimiter(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, exists := rl.limiters[ip]; exists {
		l.lastSeen = now
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

// evictIdle drops limiters unused since before cutoff.
func (rl *RateLimiter) evictIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.evictIdle(now.Add(-rl.cfg.IdleTTL))
		}
	}
}

// Middleware returns an Echo middleware that enforces the rate limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	retryAfter := "1"
	if rl.cfg.Rate > 0 && rl.cfg.Rate < 1 {
		retryAfter = strconv.Itoa(int(1.0 / float64(rl.cfg.Rate)))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.getLimiter(c.RealIP(), time.Now()).Allow() {
				metrics.RecordRateLimited(rl.name)
				c.Response().Header().Set("Retry-After", retryAfter)
				return echo.NewHTTPError(http.StatusTooManyRequests, domain.ErrRateLimited.Error())
			}
			return next(c)
		}
	}
}
