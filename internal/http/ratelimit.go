package http

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/sjohnston82/tome-tracker1/internal/ratelimit"
)

// RateLimiter decides whether a user may perform an action now.
type RateLimiter interface {
	Allow(ctx context.Context, userID string, action ratelimit.Action) (ratelimit.Decision, error)
}

// RateLimitMiddleware throttles action per user. A limiter failure lets the
// request through.
func RateLimitMiddleware(limiter RateLimiter, action ratelimit.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		decision, err := limiter.Allow(c.Request.Context(), GetUserID(c), action)
		if err != nil {
			log.Printf("[RATELIMIT] %s check failed, allowing request: %v", action, err)
			c.Next()
			return
		}

		if !decision.Allowed {
			respondRateLimited(c, decision.Message, retryAfterSeconds(decision.RetryAfter.Seconds()))
			c.Abort()
			return
		}

		c.Next()
	}
}
