package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/truesource/storefront/internal/api/shared/errors"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/ratelimit"
)

// RateLimit returns a gin middleware that limits requests per client IP.
// scope prefixes the limiter key so different routes keep separate budgets.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := scope + c.ClientIP()

		decision, err := limiter.Allow(ctx, key)
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("key", key))
			if errors.Is(err, ratelimit.ErrUnavailable) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable,
					apierrors.Response(apierrors.NewServiceUnavailableError("Rate limiter unavailable")))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				apierrors.Response(apierrors.NewInternalError("Failed to check rate limit")))
			return
		}

		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logger.WarnCtx(ctx, "Rate limit exceeded",
				zap.String("key", key),
				zap.Duration("retry_after", decision.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierrors.Response(apierrors.NewTooManyRequestsError("Too many requests, please try again later")))
			return
		}

		c.Next()
	}
}
