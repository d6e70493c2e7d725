package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig controls the per-client request budget.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// limiterStore hands out one rate.Limiter per client key.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      RateLimitConfig
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*rate.Limiter),
		cfg:      cfg,
	}
}

func (s *limiterStore) limiterFor(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.BurstSize)
		s.limiters[key] = l
	}
	return l
}

// retryAfterSeconds reports how long a throttled client should wait before
// the limiter admits another request. Never less than one second, so the
// Retry-After header stays meaningful.
func retryAfterSeconds(l *rate.Limiter) int {
	if l.Limit() <= 0 {
		return 1
	}
	r := l.Reserve()
	if !r.OK() {
		return 1
	}
	delay := r.Delay()
	r.Cancel()
	secs := int(math.Ceil(delay.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit throttles requests with a token bucket per client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := store.limiterFor(c.RealIP())

			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if !l.Allow() {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(l)))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
