package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/api/shared/constants"
	apierrors "github.com/truesource/storefront/internal/api/shared/errors"
	"github.com/truesource/storefront/internal/logger"
)

// RequestID returns a gin middleware that tags every request with an id.
// An incoming X-Request-ID is kept, otherwise a ULID is generated.
// The id is echoed in the response and attached to the request context logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.REQUEST_ID_HEADER)
		if requestID == "" || len(requestID) > 64 {
			requestID = ulid.Make().String()
		}

		c.Header(constants.REQUEST_ID_HEADER, requestID)
		ctx := logger.WithFields(c.Request.Context(), zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Logger returns a gin middleware for structured logging using zap
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.InfoCtx(c.Request.Context(), "API request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// Recovery returns a gin middleware for panic recovery with logging
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorCtx(c.Request.Context(), fmt.Errorf("panic recovered: %v", err),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apierrors.Response(apierrors.NewInternalError("Internal server error")))
			}
		}()
		c.Next()
	}
}
