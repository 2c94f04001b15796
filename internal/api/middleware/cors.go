package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/truesource/storefront/internal/api/shared/constants"
)

// SetupCORS configures CORS middleware with fully open settings
// FIXME: restrict origins to the storefront domains once they are known.
func SetupCORS() gin.HandlerFunc {
	config := cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", constants.REQUEST_ID_HEADER},
		ExposeHeaders:    []string{"Content-Length", "ETag", "Retry-After", "RateLimit-Limit", "RateLimit-Remaining", constants.REQUEST_ID_HEADER},
		AllowCredentials: false,
		MaxAge:           time.Hour,
	}
	return cors.New(config)
}
