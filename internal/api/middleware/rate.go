package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// Idle is how long a client may stay silent before its limiter is
	// dropped. Zero means DefaultIdle.
	Idle time.Duration
}

// DefaultIdle bounds how long per-client limiters are kept.
const DefaultIdle = 10 * time.Minute

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		Burst:             40,
		Idle:              DefaultIdle,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiters holds one token bucket per client IP.
type limiters struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	clients map[string]*visitor
	swept   time.Time
	now     func() time.Time
}

func newLimiters(cfg RateLimitConfig, now func() time.Time) *limiters {
	if cfg.Idle <= 0 {
		cfg.Idle = DefaultIdle
	}
	return &limiters{cfg: cfg, clients: make(map[string]*visitor), now: now, swept: now()}
}

func (l *limiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > l.cfg.Idle {
		for k, v := range l.clients {
			if now.Sub(v.lastSeen) > l.cfg.Idle {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}

	v, ok := l.clients[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.clients[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *limiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(newLimiters(cfg, time.Now))
}

func rateLimit(l *limiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
