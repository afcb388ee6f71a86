// file: internal/server/middleware/ratelimit.go
// version: 2.0.0
// guid: 1331705a-85cb-4158-92f5-5ce203d8a0e7

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleClientTTL is how long an idle client's bucket is remembered
const idleClientTTL = 15 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a per-client token bucket limiter for the catalog API.
// Health checks, metrics and event streams listed in exempt never consume tokens.
type IPRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perMinute int
	burst     int
	lastSweep time.Time
	exempt    map[string]bool
	log       *zap.Logger
}

// NewIPRateLimiter allows perMinute requests per client IP with the given
// burst. exemptPaths are matched against the full route path.
func NewIPRateLimiter(perMinute, burst int, log *zap.Logger, exemptPaths ...string) *IPRateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	r := &IPRateLimiter{
		clients:   make(map[string]*clientBucket),
		perMinute: max(1, perMinute),
		burst:     max(1, burst),
		lastSweep: time.Now(),
		exempt:    make(map[string]bool, len(exemptPaths)),
		log:       log,
	}
	for _, p := range exemptPaths {
		r.exempt[p] = true
	}
	return r
}

func (r *IPRateLimiter) allow(ip string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) > time.Minute {
		for key, b := range r.clients {
			if now.Sub(b.lastSeen) > idleClientTTL {
				delete(r.clients, key)
			}
		}
		r.lastSweep = now
	}

	b, ok := r.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(float64(r.perMinute)/60.0), r.burst)}
		r.clients[ip] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// tracked returns the number of clients with a live bucket
func (r *IPRateLimiter) tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *IPRateLimiter) retryAfterSeconds() int {
	return max(1, 60/r.perMinute)
}

// Middleware rejects over-limit clients with 429 and a Retry-After header.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.exempt[c.FullPath()] {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !r.allow(ip) {
			r.log.Warn("rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", strconv.Itoa(r.retryAfterSeconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "rate limit exceeded",
				"code":   "RATE_LIMITED",
				"status": http.StatusTooManyRequests,
			})
			return
		}
		c.Next()
	}
}
