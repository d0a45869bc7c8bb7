package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrirent/service-booking/internal/common/response"
)

// KeyLimiter decides whether a keyed request is within its quota.
type KeyLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ActorRateLimitMiddleware limits requests per authenticated caller.
// It must run after AuthMiddleware. Limiter failures fail open.
func ActorRateLimitMiddleware(limiter KeyLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), userID.String())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.TooManyRequests(c, "too many booking requests, try again later")
			return
		}
		c.Next()
	}
}
