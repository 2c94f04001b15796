package domain

import "errors"

var (
	// ErrTokenNotFound is returned when a token does not exist on-chain
	ErrTokenNotFound = errors.New("token not found")

	// ErrUpstream is returned when the blockchain provider fails before any data is known
	ErrUpstream = errors.New("upstream failure")

	// ErrInvalidTokenID is returned when a token id is neither decimal nor 0x-prefixed hex
	ErrInvalidTokenID = errors.New("invalid token id")

	// ErrClaimContractNotConfigured is returned when claim lookups are requested without a claim contract
	ErrClaimContractNotConfigured = errors.New("claim contract not configured")
)
