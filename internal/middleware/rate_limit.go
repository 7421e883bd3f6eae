package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redisClient *redis.Client
}

type RateLimit struct {
	Scope    string        // Counter namespace, so limits on nested groups don't share a budget
	Requests int           // Number of requests
	Window   time.Duration // Time window
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
	}
}

func (rl *RateLimiter) Limit(limit RateLimit) gin.HandlerFunc {
	scope := limit.Scope
	if scope == "" {
		scope = "api"
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		key := fmt.Sprintf("rate_limit:%s:%s", scope, c.ClientIP())

		val, err := rl.redisClient.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			// Fail open when Redis is down
			slog.Warn("Rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		var count int
		if err == nil {
			count, _ = strconv.Atoi(val)
		}

		if count >= limit.Requests {
			ttl, _ := rl.redisClient.TTL(ctx, key).Result()

			c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		pipe := rl.redisClient.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, limit.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			slog.Warn("Rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		remaining := limit.Requests - count - 1
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(limit.Window).Unix(), 10))

		c.Next()
	}
}

func (rl *RateLimiter) APILimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{
		Scope:    "api",
		Requests: 100,
		Window:   time.Minute,
	})
}

// LendingLimit throttles the borrow, return and extend endpoints.
func (rl *RateLimiter) LendingLimit(requests int, window time.Duration) gin.HandlerFunc {
	if requests <= 0 {
		requests = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return rl.Limit(RateLimit{
		Scope:    "lending",
		Requests: requests,
		Window:   window,
	})
}

func (rl *RateLimiter) SearchLimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{
		Scope:    "search",
		Requests: 30,
		Window:   time.Minute,
	})
}
