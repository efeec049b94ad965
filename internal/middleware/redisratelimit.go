// redisratelimit.go provides a Redis-backed rate limiter for deployments that
// run more than one server instance. The in-process token bucket in
// ratelimit.go limits per instance; this one shares its counters through
// Redis using the GCRA implementation from redis_rate.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces shared per-client limits across instances
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisRateLimiter creates a limiter allowing requestsPerMinute per client
// key with the given burst
func NewRedisRateLimiter(rdb *redis.Client, requestsPerMinute, burst int) *RedisRateLimiter {
	limit := redis_rate.PerMinute(requestsPerMinute)
	if burst > 0 {
		limit.Burst = burst
	}
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   limit,
	}
}

// Middleware returns the Gin handler enforcing the shared limit. When Redis
// is unreachable the request is allowed through: rate limiting is protective,
// not load-bearing, and an outage must not take authentication down with it.
func (rl *RedisRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := getRateLimitKey(c)

		res, err := rl.limiter.Allow(c.Request.Context(), "ratelimit:"+key, rl.limit)
		if err != nil {
			slog.Warn("redis rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
