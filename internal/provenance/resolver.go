package provenance

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/block"
	"github.com/truesource/storefront/internal/domain"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/providers/ethereum"
)

const (
	// DegradedNote is reported when the transfer scan fails as a whole
	DegradedNote = "Could not fetch transfer history, showing current owner only"
)

// Resolver reconstructs the ownership trail of a token from its Transfer logs
//
//go:generate mockgen -source=resolver.go -destination=../mocks/provenance_resolver.go -package=mocks -mock_names=Resolver=MockProvenanceResolver
type Resolver interface {
	// Resolve returns the provenance summary of a token.
	// It fails with domain.ErrTokenNotFound if the token does not exist and with a
	// wrapped domain.ErrUpstream if the chain cannot be read before the scan starts.
	// Failures during the scan never surface as errors.
	Resolve(ctx context.Context, tokenID string) (*domain.ProvenanceSummary, error)
}

// Config holds the scan parameters
type Config struct {
	// LookbackBlocks is the number of blocks below the chain head that are scanned
	LookbackBlocks uint64
	// BlocksPerChunk is the size of a single log query
	BlocksPerChunk uint64
	// ChunkDelay is the pause between two consecutive log queries
	ChunkDelay time.Duration
}

type resolver struct {
	config Config
	client ethereum.Client
	head   block.HeadProvider
	clock  adapter.Clock
}

// NewResolver creates a new provenance resolver
func NewResolver(config Config, client ethereum.Client, head block.HeadProvider, clock adapter.Clock) Resolver {
	if config.BlocksPerChunk == 0 {
		config.BlocksPerChunk = domain.DEFAULT_BLOCKS_PER_CHUNK
	}
	return &resolver{
		config: config,
		client: client,
		head:   head,
		clock:  clock,
	}
}

// scanResult is the raw output of the chunked scan
type scanResult struct {
	transfers []domain.TransferEvent
	skipped   []domain.BlockRange
}

// Resolve implements Resolver
func (r *resolver) Resolve(ctx context.Context, tokenID string) (*domain.ProvenanceSummary, error) {
	id, err := domain.ParseTokenID(tokenID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithFields(ctx, zap.String("tokenId", tokenID))

	// Step 1: existence and current owner
	exists, err := r.client.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check token existence: %w", domain.ErrUpstream, err)
	}
	if !exists {
		return nil, domain.ErrTokenNotFound
	}

	currentOwner, err := r.client.OwnerOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get current owner: %w", domain.ErrUpstream, err)
	}

	// Step 2: range discovery
	latestBlock, err := r.head.LatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get latest block: %w", domain.ErrUpstream, err)
	}
	window := r.window(latestBlock)

	// Step 3: chunked scan
	result, err := r.scan(ctx, id, window)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("transfer scan failed: %w", err),
			zap.String("range", window.String()))
		return degradedSummary(tokenID, currentOwner), nil
	}

	// Step 4: aggregation
	summary := aggregate(tokenID, currentOwner, result.transfers, r.config.LookbackBlocks)
	summary.SkippedRanges = result.skipped

	logger.InfoCtx(ctx, "Resolved token provenance",
		zap.String("range", window.String()),
		zap.Int("transfers", summary.TotalTransfers),
		zap.Int("owners", len(summary.AllOwners)),
		zap.Int("mints", countMints(summary.Transfers)),
		zap.Int("skippedChunks", len(result.skipped)))

	return summary, nil
}

// window returns the inclusive block range ending at the chain head
func (r *resolver) window(latestBlock uint64) domain.BlockRange {
	var fromBlock uint64
	if latestBlock > r.config.LookbackBlocks {
		fromBlock = latestBlock - r.config.LookbackBlocks
	}
	return domain.BlockRange{FromBlock: fromBlock, ToBlock: latestBlock}
}

// scan queries the window chunk by chunk, one query at a time.
// A failed chunk is logged and recorded; an error is returned only when the
// scan cannot continue at all.
func (r *resolver) scan(ctx context.Context, tokenID *big.Int, window domain.BlockRange) (result *scanResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("panic during transfer scan: %v", rec)
		}
	}()

	chunks := splitRange(window, r.config.BlocksPerChunk)
	result = &scanResult{transfers: []domain.TransferEvent{}}

	for i, chunk := range chunks {
		events, err := r.client.TransferLogs(ctx, tokenID, chunk.FromBlock, chunk.ToBlock)
		if err != nil {
			logger.WarnCtx(ctx, "Failed to fetch transfer logs, skipping chunk",
				zap.String("range", chunk.String()),
				zap.Error(err))
			result.skipped = append(result.skipped, chunk)
		} else {
			result.transfers = append(result.transfers, events...)
		}

		if i == len(chunks)-1 {
			break
		}

		if err := r.pause(ctx); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// pause waits the pacing delay between two chunks
func (r *resolver) pause(ctx context.Context) error {
	if r.config.ChunkDelay <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(r.config.ChunkDelay):
		return nil
	}
}

// splitRange partitions an inclusive range into consecutive chunks of size blocks,
// the last one clipped to the end of the range
func splitRange(window domain.BlockRange, size uint64) []domain.BlockRange {
	if size == 0 || window.ToBlock < window.FromBlock {
		return nil
	}

	chunks := make([]domain.BlockRange, 0, window.Size()/size+1)
	for from := window.FromBlock; from <= window.ToBlock; from += size {
		to := window.ToBlock
		if window.ToBlock-from >= size {
			to = from + size - 1
		}
		chunks = append(chunks, domain.BlockRange{FromBlock: from, ToBlock: to})
		if to == window.ToBlock {
			break
		}
	}

	return chunks
}

// countMints returns how many transfers originate from the zero address
func countMints(transfers []domain.TransferEvent) int {
	n := 0
	for _, t := range transfers {
		if t.IsMint() {
			n++
		}
	}
	return n
}

// degradedSummary is returned when the scan fails as a whole
func degradedSummary(tokenID, currentOwner string) *domain.ProvenanceSummary {
	return &domain.ProvenanceSummary{
		TokenID:        tokenID,
		CurrentOwner:   currentOwner,
		PreviousOwners: []string{},
		AllOwners:      []string{},
		TotalTransfers: 0,
		Transfers:      []domain.TransferEvent{},
		Note:           DegradedNote,
	}
}

// IsDegraded reports whether a summary is the current-owner-only fallback
func IsDegraded(summary *domain.ProvenanceSummary) bool {
	return summary != nil && summary.Note == DegradedNote
}
