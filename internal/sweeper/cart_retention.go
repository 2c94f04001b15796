package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/store"
)

// CartRetentionSweeperConfig holds configuration for the cart retention sweeper
type CartRetentionSweeperConfig struct {
	Retention      time.Duration // Carts idle longer than this are deleted
	BatchSize      int           // Carts deleted per cycle
	WorkerPoolSize int           // Concurrent deletes
	Interval       time.Duration // Pause once no full batch is left
}

// cartRetentionSweeper implements the Sweeper interface for abandoned cart cleanup
type cartRetentionSweeper struct {
	config    *CartRetentionSweeperConfig
	store     store.Store
	clock     adapter.Clock
	pool      pond.Pool
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewCartRetentionSweeper creates a new cart retention sweeper
func NewCartRetentionSweeper(config *CartRetentionSweeperConfig, st store.Store, clock adapter.Clock) Sweeper {
	return &cartRetentionSweeper{
		config:    config,
		store:     st,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *cartRetentionSweeper) Name() string {
	return "cart-retention-sweeper"
}

// Start begins the sweeper's main loop
func (s *cartRetentionSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting cart retention sweeper",
		zap.Duration("retention", s.config.Retention),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
	)

	// Create worker pool
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)
	defer s.pool.StopAndWait()

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Cart retention sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Cart retention sweeper stop requested")
			return nil
		default:
			full, err := s.runSweepCycle(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
			if full && err == nil {
				continue
			}
			s.sleep(ctx, s.config.Interval)
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *cartRetentionSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping cart retention sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Cart retention sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Cart retention sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle deletes one batch of stale carts.
// It reports whether the batch was full, meaning more stale carts may be waiting.
func (s *cartRetentionSweeper) runSweepCycle(ctx context.Context) (bool, error) {
	startTime := s.clock.Now()
	cutoff := startTime.Add(-s.config.Retention)

	ids, err := s.store.GetStaleCartIDs(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		return false, fmt.Errorf("failed to get stale carts: %w", err)
	}

	if len(ids) == 0 {
		logger.DebugCtx(ctx, "No stale carts found", zap.Time("cutoff", cutoff))
		return false, nil
	}

	var deletedCount, skippedCount, failedCount atomic.Int32

	group := s.pool.NewGroup()
	for _, id := range ids {
		group.Submit(func() {
			deleted, err := s.store.DeleteStaleCart(ctx, id, cutoff)
			switch {
			case err != nil:
				failedCount.Add(1)
				logger.ErrorCtx(ctx, err, zap.String("cartId", id))
			case deleted:
				deletedCount.Add(1)
			default:
				// Updated between the query and the delete
				skippedCount.Add(1)
			}
		})
	}

	// Wait for all deletes to complete
	if err := group.Wait(); err != nil {
		return false, fmt.Errorf("failed to wait for cart deletes: %w", err)
	}

	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("stale", len(ids)),
		zap.Int32("deleted", deletedCount.Load()),
		zap.Int32("skipped", skippedCount.Load()),
		zap.Int32("failed", failedCount.Load()),
	)

	if failedCount.Load() > 0 {
		return false, fmt.Errorf("failed to delete %d stale carts", failedCount.Load())
	}

	return len(ids) == s.config.BatchSize, nil
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted
func (s *cartRetentionSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true // Sleep completed
	case <-ctx.Done():
		return false // Interrupted by context cancellation
	case <-s.stopChan:
		return false // Interrupted by stop signal
	}
}
