package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/api/middleware"
	"github.com/truesource/storefront/internal/api/rest"
	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/provenance"
	"github.com/truesource/storefront/internal/providers/ethereum"
	"github.com/truesource/storefront/internal/ratelimit"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Auth         middleware.AuthConfig
}

// Dependencies holds the services the API is served from
type Dependencies struct {
	Resolver provenance.Resolver
	Ethereum ethereum.Client
	Carts    *cart.Store
	// Limiter throttles the history endpoint, nil disables rate limiting
	Limiter ratelimit.Limiter
	// HealthChecks are pinged by the health endpoint, keyed by dependency name
	HealthChecks map[string]rest.HealthChecker
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Router builds the gin engine with all middleware and routes
func (s *Server) Router() *gin.Engine {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Create REST handler
	restHandler := rest.NewHandler(
		s.deps.Resolver,
		s.deps.Ethereum,
		s.deps.Carts,
		adapter.NewJCS(),
		s.deps.HealthChecks,
	)

	// Setup REST routes
	rest.SetupRoutes(router, restHandler, rest.RouteConfig{
		Auth:    s.config.Auth,
		Limiter: s.deps.Limiter,
	})

	return router
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
