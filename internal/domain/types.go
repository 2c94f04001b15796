package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// IsValidChain checks if a chain is supported
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet ||
		chain == ChainEthereumSepolia
}

// TransferEvent is a single Transfer log of a token, as retrieved from the chain
type TransferEvent struct {
	From            string `json:"from"`
	To              string `json:"to"`
	BlockNumber     uint64 `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`

	// LogIndex is the position of the log within its block, kept for diagnostics only
	LogIndex uint `json:"-"`
}

// IsMint reports whether the transfer originates from the zero address
func (e TransferEvent) IsMint() bool {
	return strings.EqualFold(e.From, ETHEREUM_ZERO_ADDRESS)
}

// BlockRange is an inclusive range of block numbers
type BlockRange struct {
	FromBlock uint64 `json:"fromBlock"`
	ToBlock   uint64 `json:"toBlock"`
}

// Size returns the number of blocks covered by the range
func (r BlockRange) Size() uint64 {
	if r.ToBlock < r.FromBlock {
		return 0
	}
	return r.ToBlock - r.FromBlock + 1
}

func (r BlockRange) String() string {
	return fmt.Sprintf("%d-%d", r.FromBlock, r.ToBlock)
}

// ProvenanceSummary is the ownership trail of a token reconstructed from Transfer logs.
// Field names follow the display layer contract.
type ProvenanceSummary struct {
	TokenID        string          `json:"tokenId"`
	CurrentOwner   string          `json:"currentOwner"`
	PreviousOwners []string        `json:"previousOwners"`
	AllOwners      []string        `json:"allOwners"`
	TotalTransfers int             `json:"totalTransfers"`
	Transfers      []TransferEvent `json:"transfers"`
	Note           string          `json:"note,omitempty"`
	// SkippedRanges lists chunks whose log query failed and whose transfers may be missing
	SkippedRanges []BlockRange `json:"skippedRanges,omitempty"`
}

// ClaimStatus is the on-chain state of a product claim code
type ClaimStatus struct {
	Code     string `json:"code"`
	Valid    bool   `json:"valid"`
	TokenID  string `json:"tokenId"`
	Retailer string `json:"retailer"`
	Claimed  bool   `json:"claimed"`
}

// ParseTokenID parses a token id given either in decimal or as 0x-prefixed hex
func ParseTokenID(tokenID string) (*big.Int, error) {
	s := strings.TrimSpace(tokenID)
	if s == "" {
		return nil, ErrInvalidTokenID
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}

	n, ok := new(big.Int).SetString(s, base)
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTokenID, tokenID)
	}

	return n, nil
}

// NormalizeAddress returns the lowercase form of an address for case-insensitive comparison
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
