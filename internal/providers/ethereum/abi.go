package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// nftABIJSON covers the reads used on the product NFT contract
const nftABIJSON = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"name":"from","type":"address"},
		{"indexed":true,"name":"to","type":"address"},
		{"indexed":true,"name":"tokenId","type":"uint256"}],
	 "name":"Transfer","type":"event"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"exists",
	 "outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf",
	 "outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// claimABIJSON covers the read-only half of the claim contract
const claimABIJSON = `[
	{"inputs":[{"name":"claimCode","type":"string"}],"name":"checkClaim",
	 "outputs":[
		{"name":"isValid","type":"bool"},
		{"name":"tokenId","type":"uint256"},
		{"name":"retailer","type":"address"},
		{"name":"isClaimed","type":"bool"}],
	 "stateMutability":"view","type":"function"}
]`

var (
	nftABI   = mustParseABI(nftABIJSON)
	claimABI = mustParseABI(claimABIJSON)

	// ERC721 Transfer(address indexed from, address indexed to, uint256 indexed tokenId)
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
