package constants

const (
	SERVICE_NAME = "truesource-storefront-api"

	// NFT_HISTORY_RATE_LIMIT_SCOPE prefixes the per-client rate limit key of the history endpoint
	NFT_HISTORY_RATE_LIMIT_SCOPE = "nft-history:"
	// CART_RATE_LIMIT_SCOPE prefixes the per-client rate limit key of cart writes
	CART_RATE_LIMIT_SCOPE = "carts:"

	// USER_CART_PREFIX namespaces the carts of authenticated users away from issued cart ids
	USER_CART_PREFIX = "user:"

	REQUEST_ID_HEADER = "X-Request-ID"

	MAX_CART_ID_LENGTH    = 128
	MAX_CLAIM_CODE_LENGTH = 128
	MAX_ITEM_QUANTITY     = 10000
)
