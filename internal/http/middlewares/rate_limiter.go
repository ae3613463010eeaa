package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter is a fixed-window counter keyed by client. Allow reports whether
// the request fits in the current window; retryAfter is in seconds.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter int, err error)
}

// RateLimiter is the in-process fallback used when Redis is not configured.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}

		return true, 0, nil
	}

	if b.count >= rl.limit {
		retryAfter := int(time.Until(b.windowEnd).Seconds())

		if retryAfter < 0 {
			retryAfter = 0
		}

		return false, retryAfter, nil
	}

	b.count++
	return true, 0, nil
}

// RateLimiterMiddleware enforces a limiter for a derived key. On limiter
// errors the request is let through: losing rate limiting beats dropping
// traffic.
func RateLimiterMiddleware(l Limiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = KeyByIP(c)
		}

		allowed, retryAfter, err := l.Allow(c.Request.Context(), key)

		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// KeyByIP buckets unauthenticated requests by client address. The limiter
// guards the credential endpoints, which run before any identity exists.
func KeyByIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
