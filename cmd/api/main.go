package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/api/middleware"
	"github.com/truesource/storefront/internal/api/rest"
	"github.com/truesource/storefront/internal/api/server"
	"github.com/truesource/storefront/internal/block"
	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/config"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/provenance"
	"github.com/truesource/storefront/internal/providers/ethereum"
	"github.com/truesource/storefront/internal/ratelimit"
	"github.com/truesource/storefront/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
			"chain":   string(cfg.Ethereum.ChainID),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting TrueSource storefront API")

	clock := adapter.NewClock()

	// Connect to the Ethereum node
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.DialURL())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Ethereum node", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	ethereumClient := ethereum.NewClient(ethereum.Config{
		ContractAddress:      cfg.Ethereum.ContractAddress,
		ClaimContractAddress: cfg.Ethereum.ClaimContractAddress,
		CallMaxElapsed:       cfg.Ethereum.CallMaxElapsed,
	}, ethClient)
	defer ethereumClient.Close()
	logger.InfoCtx(ctx, "Connected to Ethereum node",
		zap.String("chain_id", string(cfg.Ethereum.ChainID)),
		zap.String("contract_address", cfg.Ethereum.ContractAddress),
	)

	headProvider := block.NewHeadProvider(
		ethereum.NewBlockFetcher(ethClient),
		block.Config{
			TTL:         cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
		},
		clock,
	)

	resolver := provenance.NewResolver(provenance.Config{
		LookbackBlocks: cfg.Provenance.LookbackBlocks,
		BlocksPerChunk: cfg.Provenance.BlocksPerChunk,
		ChunkDelay:     cfg.Provenance.ChunkDelay,
	}, ethereumClient, headProvider, clock)

	healthChecks := make(map[string]rest.HealthChecker)

	// Cart persistence: postgres when configured, in memory otherwise
	var (
		persister   cart.Persister
		memoryCarts *cart.MemoryPersister
	)
	if cfg.Database.Enabled() {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
		}

		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)

		dataStore := store.NewPGStore(db)
		persister = store.NewCartPersister(dataStore)
		healthChecks["database"] = dataStore
	} else {
		logger.WarnCtx(ctx, "Database not configured, carts are kept in memory")
		memoryCarts = cart.NewMemoryPersister(cart.MemoryConfig{
			Retention: cfg.CartRetention.Retention,
			MaxCarts:  cfg.CartRetention.MaxMemoryCarts,
		}, clock)
		persister = memoryCarts
	}

	// Rate limiter: redis backed when configured, local otherwise
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		var redisClient adapter.RedisClient
		if cfg.Redis.Addr != "" {
			redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer func() {
				_ = redisClient.Close()
			}()
			healthChecks["redis"] = redisClient
		}

		limiter, err = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute:   cfg.RateLimit.RequestsPerMinute,
			Burst:               cfg.RateLimit.Burst,
			EnableLocalFallback: cfg.RateLimit.EnableLocalFallback,
		}, redisClient, clock)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to initialize rate limiter", zap.Error(err))
		}
	}

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
		},
	}

	srv := server.New(serverConfig, server.Dependencies{
		Resolver:     resolver,
		Ethereum:     ethereumClient,
		Carts:        cart.NewStore(persister, clock),
		Limiter:      limiter,
		HealthChecks: healthChecks,
	})

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	if memoryCarts != nil && cfg.CartRetention.Interval > 0 {
		g.Go(func() error {
			sweepMemoryCarts(gCtx, memoryCarts, cfg.CartRetention.Interval, clock)
			return nil
		})
	}

	// Wait for interrupt signal or a server failure, then shut down gracefully
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		// Don't use the canceled ctx for shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err, zap.String("component", "server"))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

// sweepMemoryCarts drops expired in-memory carts every interval until ctx is done
func sweepMemoryCarts(ctx context.Context, carts *cart.MemoryPersister, interval time.Duration, clock adapter.Clock) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clock.After(interval):
			if removed := carts.Sweep(); removed > 0 {
				logger.InfoCtx(ctx, "Removed expired in-memory carts",
					zap.Int("removed", removed),
					zap.Int("remaining", carts.Len()))
			}
		}
	}
}
