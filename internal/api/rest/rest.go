package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/truesource/storefront/internal/api/middleware"
	"github.com/truesource/storefront/internal/api/shared/constants"
	"github.com/truesource/storefront/internal/ratelimit"
)

// RouteConfig holds what the routes need besides the handler
type RouteConfig struct {
	Auth middleware.AuthConfig
	// Limiter throttles the history endpoint and cart writes per client, nil disables it
	Limiter ratelimit.Limiter
}

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, cfg RouteConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	history := limited(cfg.Limiter, constants.NFT_HISTORY_RATE_LIMIT_SCOPE, handler.GetNFTHistory)

	// NFT history keeps its unversioned path for the storefront pages
	router.GET("/nft-history", history...)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// NFT endpoints (public read access)
		v1.GET("/nft-history", history...)
		v1.GET("/claims/:code", handler.GetClaim)

		// Cart endpoints addressed by an issued cart id (open, the id is the capability)
		v1.POST("/carts", limited(cfg.Limiter, constants.CART_RATE_LIMIT_SCOPE, handler.CreateCart)...)
		carts := v1.Group("/carts/:cart_id")
		setupCartRoutes(carts, handler, cfg.Limiter)

		// Cart of the authenticated user (requires a JWT with a subject)
		me := v1.Group("/me/cart", middleware.SubjectAuth(cfg.Auth))
		setupCartRoutes(me, handler, cfg.Limiter)
	}
}

func setupCartRoutes(group *gin.RouterGroup, handler Handler, limiter ratelimit.Limiter) {
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return limited(limiter, constants.CART_RATE_LIMIT_SCOPE, h)
	}

	group.GET("", handler.GetCart)
	group.POST("/items", write(handler.AddCartItem)...)
	group.DELETE("/items", write(handler.ClearCart)...)
	group.PATCH("/items/:product_id", write(handler.UpdateCartItem)...)
	group.DELETE("/items/:product_id", write(handler.RemoveCartItem)...)
	group.POST("/items/:product_id/increment", write(handler.IncrementCartItem)...)
	group.POST("/items/:product_id/decrement", write(handler.DecrementCartItem)...)
}

// limited prefixes h with the rate limit middleware of scope when a limiter is configured
func limited(limiter ratelimit.Limiter, scope string, h gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{middleware.RateLimit(limiter, scope), h}
}
