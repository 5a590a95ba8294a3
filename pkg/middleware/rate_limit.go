package middleware

import (
	"net/http"
	"sync"

	"github.com/erpsystem/doccheck/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// MemoryLimiter is an in-process token bucket per subject or client IP.
type MemoryLimiter struct {
	rps   rate.Limit
	burst int
	mu    sync.Mutex
	store map[string]*rate.Limiter
}

// NewMemoryLimiter allows rps events per second with bursts of burst.
func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{rps: rate.Limit(rps), burst: burst, store: make(map[string]*rate.Limiter)}
}

func (l *MemoryLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.store[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.store[key] = lim
	}
	return lim
}

// Handler returns the gin middleware.
func (l *MemoryLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(limitKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// RateLimitMiddleware is shorthand for NewMemoryLimiter(rps, burst).Handler().
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return NewMemoryLimiter(rps, burst).Handler()
}
