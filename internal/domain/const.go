package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// SEPOLIA_CHAIN_ID_HEX is the chain id reported by wallets connected to Sepolia
	SEPOLIA_CHAIN_ID_HEX = "0xaa36a7"

	// Provenance defaults
	DEFAULT_LOOKBACK_BLOCKS  = 1000
	DEFAULT_BLOCKS_PER_CHUNK = 10
)
