package cache

import (
	"context"
	"time"
)

// Cache provides a simple key-value cache for upstream lookups
type Cache interface {
	// Get retrieves a value by key, returns nil if not found
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with optional TTL
	Set(ctx context.Context, key string, value []byte, ttl *time.Duration) error

	// GetJSON retrieves and unmarshals JSON data
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals and stores JSON data
	SetJSON(ctx context.Context, key string, value interface{}, ttl *time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Has checks if a key exists
	Has(ctx context.Context, key string) bool
}

// Standard TTL durations for the different upstream data classes
var (
	// Gas prices move block to block
	GasPriceTTLDuration = 15 * time.Second

	// Spot prices refresh once a minute
	SpotPriceTTLDuration = time.Minute

	// NFT holdings change on transfer, rarely within minutes
	NFTHoldingsTTLDuration = 5 * time.Minute

	// Portfolio value/details/profit-loss snapshots
	PortfolioTTLDuration = 2 * time.Minute

	// Wallet history gains new events continuously
	HistoryTTLDuration = time.Minute

	// A mined transaction's trace never changes
	TraceTTLDuration = 24 * time.Hour
)

// Cache key patterns for consistent naming - includes chain ID for uniqueness
const (
	// Gas price caching - format: gas-price:chainId
	GasPriceKeyPattern = "gas-price:%s" // gas-price:1

	// Spot price caching - format: spot-price:chainId:currency
	SpotPriceKeyPattern = "spot-price:%s:%s" // spot-price:1:USD

	// NFT holdings caching - format: nft-holdings:chainId:wallet
	NFTHoldingsKeyPattern = "nft-holdings:%s:%s" // nft-holdings:1:0x123...

	// Token value caching - format: erc20-value:chainId:address
	TokenValueKeyPattern = "erc20-value:%s:%s" // erc20-value:1:0x123...

	// Token details caching - format: erc20-details:chainId:address
	TokenDetailsKeyPattern = "erc20-details:%s:%s" // erc20-details:1:0x123...

	// Profit/loss caching - format: erc20-pnl:chainId:address:timerange
	ProfitLossKeyPattern = "erc20-pnl:%s:%s:%s" // erc20-pnl:1:0x123...:30day

	// History caching - format: tx-history:chainId:wallet
	HistoryKeyPattern = "tx-history:%s:%s" // tx-history:1:0x123...

	// Trace caching - format: tx-trace:chainId:block:hash
	TraceKeyPattern = "tx-trace:%s:%s:%s" // tx-trace:1:18500000:0xabc...
)
