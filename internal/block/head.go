package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/logger"
)

// Head is the last observed chain height and when it was observed
type Head struct {
	Number     uint64
	ObservedAt time.Time
}

// HeadProvider returns the current chain height.
// With a zero TTL every call reaches the chain; the last good value is only
// reused as a fallback while it is younger than the stale window.
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=HeadProvider=MockHeadProvider,Fetcher=MockBlockFetcher
type HeadProvider interface {
	// LatestBlock returns the current block height
	LatestBlock(ctx context.Context) (uint64, error)
}

// Fetcher fetches the latest block number from the chain
type Fetcher interface {
	FetchLatestBlock(ctx context.Context) (uint64, error)
}

// Config holds configuration for the HeadProvider
type Config struct {
	// TTL is how long a fetched height is served without asking the chain
	TTL time.Duration

	// StaleWindow is how long a height may be served when fetching fails
	StaleWindow time.Duration
}

type headProvider struct {
	fetcher Fetcher
	config  Config
	clock   adapter.Clock

	mu   sync.RWMutex
	head *Head
}

// NewHeadProvider creates a new HeadProvider
func NewHeadProvider(fetcher Fetcher, config Config, clock adapter.Clock) HeadProvider {
	return &headProvider{
		fetcher: fetcher,
		config:  config,
		clock:   clock,
	}
}

// LatestBlock returns the current block height, using the cached head if still fresh
func (p *headProvider) LatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && p.config.TTL > 0 && now.Sub(cached.ObservedAt) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached block number", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	number, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.ObservedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Using stale block number",
				zap.Uint64("block_number", cached.Number),
				zap.Duration("age", now.Sub(cached.ObservedAt)),
				zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	if p.head == nil || !p.head.ObservedAt.After(now) {
		p.head = &Head{Number: number, ObservedAt: now}
	}
	p.mu.Unlock()

	return number, nil
}
