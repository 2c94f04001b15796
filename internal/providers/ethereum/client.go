package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/domain"
	"github.com/truesource/storefront/internal/logger"
)

// Client is the typed capability over the product NFT and claim contracts
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=Client=MockEthereumClient
type Client interface {
	// Exists reports whether the token has been minted and not burned
	Exists(ctx context.Context, tokenID *big.Int) (bool, error)

	// OwnerOf returns the current owner of the token
	OwnerOf(ctx context.Context, tokenID *big.Int) (string, error)

	// TransferLogs returns the Transfer events of the token in the inclusive block range,
	// in the order returned by the node
	TransferLogs(ctx context.Context, tokenID *big.Int, fromBlock, toBlock uint64) ([]domain.TransferEvent, error)

	// CheckClaim reads the state of a claim code from the claim contract
	CheckClaim(ctx context.Context, code string) (*domain.ClaimStatus, error)

	// Close closes the connection
	Close()
}

// Config holds the contract addresses and call policy
type Config struct {
	ContractAddress      string
	ClaimContractAddress string
	// CallMaxElapsed bounds retries of a contract read, zero disables retries
	CallMaxElapsed time.Duration
}

type ethereumClient struct {
	client        adapter.EthClient
	contract      common.Address
	claimContract *common.Address
	maxElapsed    time.Duration
}

// NewClient creates a Client over an Ethereum JSON-RPC connection
func NewClient(cfg Config, client adapter.EthClient) Client {
	c := &ethereumClient{
		client:     client,
		contract:   common.HexToAddress(cfg.ContractAddress),
		maxElapsed: cfg.CallMaxElapsed,
	}
	if cfg.ClaimContractAddress != "" {
		addr := common.HexToAddress(cfg.ClaimContractAddress)
		c.claimContract = &addr
	}
	return c
}

// Exists calls exists(uint256) on the NFT contract
func (c *ethereumClient) Exists(ctx context.Context, tokenID *big.Int) (bool, error) {
	result, err := c.call(ctx, c.contract, nftABI, "exists", tokenID)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := nftABI.UnpackIntoInterface(&exists, "exists", result); err != nil {
		return false, fmt.Errorf("failed to unpack result: %w", err)
	}

	return exists, nil
}

// OwnerOf calls ownerOf(uint256) on the NFT contract
func (c *ethereumClient) OwnerOf(ctx context.Context, tokenID *big.Int) (string, error) {
	result, err := c.call(ctx, c.contract, nftABI, "ownerOf", tokenID)
	if err != nil {
		return "", err
	}

	var owner common.Address
	if err := nftABI.UnpackIntoInterface(&owner, "ownerOf", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	return owner.Hex(), nil
}

// TransferLogs issues a single eth_getLogs for the Transfer events of tokenID.
// It does not retry: callers decide how to treat a failed range.
func (c *ethereumClient) TransferLogs(ctx context.Context, tokenID *big.Int, fromBlock, toBlock uint64) ([]domain.TransferEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contract},
		Topics: [][]common.Hash{
			{transferEventSignature},
			nil,                         // Any from address
			nil,                         // Any to address
			{common.BigToHash(tokenID)}, // Specific token ID
		},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs for blocks %d-%d: %w", fromBlock, toBlock, err)
	}

	events := make([]domain.TransferEvent, 0, len(logs))
	for _, vLog := range logs {
		event, err := parseTransferLog(vLog)
		if err != nil {
			logger.WarnCtx(ctx, "Failed to parse transfer log",
				zap.Error(err),
				zap.String("tx_hash", vLog.TxHash.Hex()),
				zap.Uint64("block_number", vLog.BlockNumber))
			continue
		}
		if event != nil {
			events = append(events, *event)
		}
	}

	return events, nil
}

// CheckClaim calls checkClaim(string) on the claim contract
func (c *ethereumClient) CheckClaim(ctx context.Context, code string) (*domain.ClaimStatus, error) {
	if c.claimContract == nil {
		return nil, domain.ErrClaimContractNotConfigured
	}

	result, err := c.call(ctx, *c.claimContract, claimABI, "checkClaim", code)
	if err != nil {
		return nil, err
	}

	values, err := claimABI.Unpack("checkClaim", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unexpected checkClaim output length: %d", len(values))
	}

	valid, _ := values[0].(bool)
	tokenID, _ := values[1].(*big.Int)
	retailer, _ := values[2].(common.Address)
	claimed, _ := values[3].(bool)

	status := &domain.ClaimStatus{
		Code:     code,
		Valid:    valid,
		Retailer: retailer.Hex(),
		Claimed:  claimed,
	}
	if tokenID != nil {
		status.TokenID = tokenID.String()
	}

	return status, nil
}

// Close closes the connection
func (c *ethereumClient) Close() {
	c.client.Close()
}

// call packs and executes a read-only contract call, retrying transient failures
func (c *ethereumClient) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack data: %w", err)
	}

	var result []byte
	operation := func() error {
		var callErr error
		result, callErr = c.client.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: data,
		}, nil)
		if callErr != nil && isRevertError(callErr) {
			return backoff.Permanent(callErr)
		}
		return callErr
	}

	notify := func(err error, wait time.Duration) {
		logger.WarnCtx(ctx, "Contract call failed, retrying",
			zap.String("method", method),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to call contract %s: %w", method, err)
	}

	return result, nil
}

func (c *ethereumClient) newBackOff() backoff.BackOff {
	if c.maxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = c.maxElapsed
	return b
}

// parseTransferLog decodes an ERC721 Transfer log; removed logs yield nil
func parseTransferLog(vLog types.Log) (*domain.TransferEvent, error) {
	if vLog.Removed {
		return nil, nil
	}
	if len(vLog.Topics) != 4 {
		return nil, fmt.Errorf("invalid Transfer event: expected 4 topics, got %d", len(vLog.Topics))
	}
	if vLog.Topics[0] != transferEventSignature {
		return nil, fmt.Errorf("unexpected event signature: %s", vLog.Topics[0].Hex())
	}

	return &domain.TransferEvent{
		From:            common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
		To:              common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
		BlockNumber:     vLog.BlockNumber,
		TransactionHash: vLog.TxHash.Hex(),
		LogIndex:        vLog.Index,
	}, nil
}

// isRevertError checks if the node rejected the call deterministically
func isRevertError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "execution reverted") ||
		strings.Contains(errStr, "invalid opcode") ||
		strings.Contains(errStr, "out of gas")
}
