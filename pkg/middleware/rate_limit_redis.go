package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/erpsystem/doccheck/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by all service replicas.
// Each window allows floor(rps*window)+burst requests per key.
type RedisLimiter struct {
	client  *redis.Client
	window  int64
	allowed int64
	now     func() time.Time
}

// NewRedisLimiter creates a limiter. Windows shorter than a second are rounded up.
func NewRedisLimiter(client *redis.Client, rps float64, burst int, window time.Duration) *RedisLimiter {
	secs := int64(window.Seconds())
	if secs <= 0 {
		secs = 1
	}
	return &RedisLimiter{
		client:  client,
		window:  secs,
		allowed: int64(rps*float64(secs)) + int64(burst),
		now:     time.Now,
	}
}

// Handler returns the gin middleware.
func (l *RedisLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bucket := l.now().Unix() / l.window
		key := fmt.Sprintf("rl:%s:%d", limitKey(c), bucket)

		cnt, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			logger.Errorw("rate limit check failed", "key", key, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = l.client.Expire(ctx, key, time.Duration(l.window+1)*time.Second).Err()
		}
		if cnt > l.allowed {
			c.Header("Retry-After", strconv.FormatInt(l.window, 10))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}

// RedisRateLimitMiddleware falls back to the in-memory limiter when client is nil.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	return NewRedisLimiter(client, rps, burst, window).Handler()
}
