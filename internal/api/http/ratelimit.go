package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/spec-kit/tourism-service/internal/config"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(cfg config.RateLimitConfig) *ipRateLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > visitorIdleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit throttles requests per client IP. A non-positive rate disables it.
func RateLimit(cfg config.RateLimitConfig) fiber.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	limiter := newIPRateLimiter(cfg)
	return func(c *fiber.Ctx) error {
		if !limiter.allow(c.IP()) {
			return apperrors.NewDomainError("RATE_LIMITED",
				"Too many requests from this IP, please try again later.",
				fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
