package ethereum

import (
	"context"
	"fmt"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/block"
)

// blockFetcher implements block.Fetcher for Ethereum
type blockFetcher struct {
	client adapter.EthClient
}

// NewBlockFetcher returns a block.Fetcher reading eth_blockNumber
func NewBlockFetcher(client adapter.EthClient) block.Fetcher {
	return &blockFetcher{client: client}
}

// FetchLatestBlock fetches the latest block number from Ethereum
func (f *blockFetcher) FetchLatestBlock(ctx context.Context) (uint64, error) {
	number, err := f.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return number, nil
}
