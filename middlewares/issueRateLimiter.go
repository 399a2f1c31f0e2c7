package middlewares

import (
	"net/http"
	"os"
	"time"

	"civiclens-api/config"

	"github.com/gin-gonic/gin"
)

// throttleWindow is the rolling window for the per-user report
// throttle. This is abuse protection only; the authoritative
// free-tier quota lives in the issue handlers.
const throttleWindow = 24 * time.Hour

// IssueRateLimiter caps how many reports a single user may submit
// per window, tracked as a Redis counter with a TTL.
func IssueRateLimiter(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, _ := c.Get("user_id")
		userID, ok := userIDVal.(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": "UNAUTHENTICATED"})
			c.Abort()
			return
		}

		ctx := config.Ctx
		queuePrefix := os.Getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT")
		if queuePrefix == "" {
			queuePrefix = "issue-limit"
		}

		userKey := queuePrefix + ":" + userID

		count, err := config.RedisClient.Incr(ctx, userKey).Result()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable", "code": "UPSTREAM_UNAVAILABLE"})
			c.Abort()
			return
		}

		// First increment opens the window.
		if count == 1 {
			if err := config.RedisClient.Expire(ctx, userKey, throttleWindow).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable", "code": "UPSTREAM_UNAVAILABLE"})
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := config.RedisClient.TTL(ctx, userKey).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
