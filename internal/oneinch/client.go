package oneinch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"

	"github.com/chainchat/chainchat/internal/cache"
	"github.com/chainchat/chainchat/internal/metrics"
	"github.com/chainchat/chainchat/internal/models"
)

// DefaultBaseURL is the production 1inch developer API.
const DefaultBaseURL = "https://api.1inch.dev"

// ErrNoAPIKey is returned when the client was built without credentials.
var ErrNoAPIKey = errors.New("1inch API key not configured")

// Client centralizes all 1inch API interactions. Responses are cached
// with per-endpoint TTLs; when a distributed locker is configured,
// concurrent fetches for the same key collapse into one upstream call.
type Client struct {
	BaseURL    string
	apiKey     string
	httpClient *http.Client
	store      cache.Cache
	locker     *redsync.Redsync
}

// NewClient creates a 1inch API client. store and locker may be nil.
func NewClient(apiKey string, store cache.Cache, locker *redsync.Redsync) *Client {
	transport := &http.Transport{
		MaxIdleConns:    32,
		IdleConnTimeout: 90 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		log.Warn().Err(err).Msg("falling back to HTTP/1.1 transport")
	}

	return &Client{
		BaseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		store:  store,
		locker: locker,
	}
}

// IsAvailable returns whether the 1inch API is usable (has an API key).
func (c *Client) IsAvailable() bool {
	return c.apiKey != ""
}

// GasPrice fetches the current gas price tiers for a chain.
func (c *Client) GasPrice(ctx context.Context, chainID string) (*GasPrices, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}

	cacheKey := fmt.Sprintf(cache.GasPriceKeyPattern, chainID)

	var cached GasPrices
	if c.getCached(ctx, "gas-price", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "gas-price", cacheKey, &cached) {
		return &cached, nil
	}

	body, err := c.makeRequest(ctx, "gas-price", fmt.Sprintf("%s/gas-price/v1.5/%s", c.BaseURL, chainID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	var prices GasPrices
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("failed to parse gas price response: %w", err)
	}

	c.putCached(ctx, cacheKey, &prices, &cache.GasPriceTTLDuration)
	return &prices, nil
}

// TransactionHistory fetches recent history events for a wallet.
func (c *Client) TransactionHistory(ctx context.Context, wallet, chainID string) (*HistoryResponse, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}

	cacheKey := fmt.Sprintf(cache.HistoryKeyPattern, chainID, wallet)

	var cached HistoryResponse
	if c.getCached(ctx, "history", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "history", cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("chainId", chainID)
	params.Set("limit", "10")

	body, err := c.makeRequest(ctx, "history", fmt.Sprintf("%s/history/v2.0/history/%s/events", c.BaseURL, wallet), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction history: %w", err)
	}

	var history HistoryResponse
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("failed to parse transaction history response: %w", err)
	}

	c.putCached(ctx, cacheKey, &history, &cache.HistoryTTLDuration)
	return &history, nil
}

// NftHoldings fetches the NFTs held by a wallet on one chain.
func (c *Client) NftHoldings(ctx context.Context, wallet, chainID string) (*NftHoldings, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}

	cacheKey := fmt.Sprintf(cache.NFTHoldingsKeyPattern, chainID, wallet)

	var cached NftHoldings
	if c.getCached(ctx, "nft", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "nft", cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("chainIds", chainID)
	params.Set("address", wallet)
	params.Set("limit", "10")

	body, err := c.makeRequest(ctx, "nft", fmt.Sprintf("%s/nft/v2/byaddress", c.BaseURL), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch NFT holdings: %w", err)
	}

	var holdings NftHoldings
	if err := json.Unmarshal(body, &holdings); err != nil {
		return nil, fmt.Errorf("failed to parse NFT holdings response: %w", err)
	}

	c.putCached(ctx, cacheKey, &holdings, &cache.NFTHoldingsTTLDuration)
	return &holdings, nil
}

// SpotPrices fetches whitelisted token prices on a chain, keyed by
// token address, in the requested currency.
func (c *Client) SpotPrices(ctx context.Context, chainID, currency string) (map[string]string, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}

	cacheKey := fmt.Sprintf(cache.SpotPriceKeyPattern, chainID, currency)

	var cached map[string]string
	if c.getCached(ctx, "spot-price", cacheKey, &cached) {
		return cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "spot-price", cacheKey, &cached) {
		return cached, nil
	}

	params := url.Values{}
	params.Set("currency", currency)

	body, err := c.makeRequest(ctx, "spot-price", fmt.Sprintf("%s/price/v1.1/%s", c.BaseURL, chainID), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spot prices: %w", err)
	}

	var prices map[string]string
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("failed to parse spot price response: %w", err)
	}

	c.putCached(ctx, cacheKey, prices, &cache.SpotPriceTTLDuration)
	return prices, nil
}

// TokenValue fetches the current portfolio value of a token address.
func (c *Client) TokenValue(ctx context.Context, token, chainID string) (*CurrentValue, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}

	cacheKey := fmt.Sprintf(cache.TokenValueKeyPattern, chainID, token)

	var cached CurrentValue
	if c.getCached(ctx, "token-value", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "token-value", cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("addresses", token)
	params.Set("chain_id", chainID)
	params.Set("use_cache", "false")

	body, err := c.makeRequest(ctx, "token-value", fmt.Sprintf("%s/portfolio/portfolio/v4/overview/erc20/current_value", c.BaseURL), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token value: %w", err)
	}

	var value CurrentValue
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, fmt.Errorf("failed to parse token value response: %w", err)
	}

	c.putCached(ctx, cacheKey, &value, &cache.PortfolioTTLDuration)
	return &value, nil
}

// TokenDetails fetches position details for a token address.
func (c *Client) TokenDetails(ctx context.Context, token, chainID string) (*TokenDetails, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}

	cacheKey := fmt.Sprintf(cache.TokenDetailsKeyPattern, chainID, token)

	var cached TokenDetails
	if c.getCached(ctx, "token-details", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "token-details", cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("addresses", token)
	params.Set("chain_id", chainID)
	params.Set("timerange", models.DefaultTimerange)
	params.Set("closed", "true")
	params.Set("closed_threshold", "1")

	body, err := c.makeRequest(ctx, "token-details", fmt.Sprintf("%s/portfolio/portfolio/v4/overview/erc20/details", c.BaseURL), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token details: %w", err)
	}

	var details TokenDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to parse token details response: %w", err)
	}

	c.putCached(ctx, cacheKey, &details, &cache.PortfolioTTLDuration)
	return &details, nil
}

// TokenProfitLoss fetches profit and loss for a token address over a
// time range. Unknown ranges fall back to the default.
func (c *Client) TokenProfitLoss(ctx context.Context, token, chainID, timerange string) (*ProfitLoss, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}
	if !models.ValidTimerange(timerange) {
		timerange = models.DefaultTimerange
	}

	cacheKey := fmt.Sprintf(cache.ProfitLossKeyPattern, chainID, token, timerange)

	var cached ProfitLoss
	if c.getCached(ctx, "profit-loss", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "profit-loss", cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("addresses", token)
	params.Set("chain_id", chainID)
	params.Set("timerange", timerange)
	params.Set("use_cache", "false")

	body, err := c.makeRequest(ctx, "profit-loss", fmt.Sprintf("%s/portfolio/portfolio/v4/overview/erc20/profit_and_loss", c.BaseURL), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token profit/loss: %w", err)
	}

	var pnl ProfitLoss
	if err := json.Unmarshal(body, &pnl); err != nil {
		return nil, fmt.Errorf("failed to parse token profit/loss response: %w", err)
	}

	c.putCached(ctx, cacheKey, &pnl, &cache.PortfolioTTLDuration)
	return &pnl, nil
}

// TransactionTrace fetches the full trace of one transaction inside a block.
func (c *Client) TransactionTrace(ctx context.Context, txHash, blockNumber, chainID string) (*TraceResponse, error) {
	if !c.IsAvailable() {
		return nil, ErrNoAPIKey
	}

	cacheKey := fmt.Sprintf(cache.TraceKeyPattern, chainID, blockNumber, txHash)

	var cached TraceResponse
	if c.getCached(ctx, "trace", cacheKey, &cached) {
		return &cached, nil
	}

	unlock := c.lockKey(ctx, cacheKey)
	defer unlock()

	if c.getCached(ctx, "trace", cacheKey, &cached) {
		return &cached, nil
	}

	traceURL := fmt.Sprintf("%s/traces/v1.0/chain/%s/block-trace/%s/tx-hash/%s", c.BaseURL, chainID, blockNumber, txHash)
	body, err := c.makeRequest(ctx, "trace", traceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction trace: %w", err)
	}

	var trace TraceResponse
	if err := json.Unmarshal(body, &trace); err != nil {
		return nil, fmt.Errorf("failed to parse transaction trace response: %w", err)
	}

	c.putCached(ctx, cacheKey, &trace, &cache.TraceTTLDuration)
	return &trace, nil
}

// Fetch retrieves the upstream data backing a resolved detection.
func (c *Client) Fetch(ctx context.Context, res models.Resolution) (interface{}, error) {
	switch res.Intent {
	case models.IntentGasPrice:
		return c.GasPrice(ctx, res.ChainID)
	case models.IntentNftHoldings:
		if res.Subject == "" {
			return nil, fmt.Errorf("nft holdings lookup requires a wallet address")
		}
		return c.NftHoldings(ctx, res.Subject, res.ChainID)
	case models.IntentSpotPrice:
		return c.SpotPrices(ctx, res.ChainID, res.Currency)
	case models.IntentTokenValue:
		if res.Subject == "" {
			return nil, fmt.Errorf("token value lookup requires a token address")
		}
		return c.TokenValue(ctx, res.Subject, res.ChainID)
	case models.IntentTokenDetails:
		if res.Subject == "" {
			return nil, fmt.Errorf("token details lookup requires a token address")
		}
		return c.TokenDetails(ctx, res.Subject, res.ChainID)
	case models.IntentTokenProfitLoss:
		if res.Subject == "" {
			return nil, fmt.Errorf("token profit/loss lookup requires a token address")
		}
		return c.TokenProfitLoss(ctx, res.Subject, res.ChainID, res.Timerange)
	case models.IntentTransactionTrace:
		if res.Subject == "" || res.BlockNumber == "" {
			return nil, fmt.Errorf("transaction trace lookup requires a hash and block number")
		}
		return c.TransactionTrace(ctx, res.Subject, res.BlockNumber, res.ChainID)
	case models.IntentTransactionHistory:
		if res.Subject == "" {
			return nil, fmt.Errorf("transaction history lookup requires a wallet address")
		}
		return c.TransactionHistory(ctx, res.Subject, res.ChainID)
	default:
		return nil, fmt.Errorf("no fetcher for intent %q", res.Intent)
	}
}

// makeRequest makes an authenticated GET request against the 1inch API.
func (c *Client) makeRequest(ctx context.Context, endpoint, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// getCached loads a cached response into v, counting the hit.
func (c *Client) getCached(ctx context.Context, endpoint, key string, v interface{}) bool {
	if c.store == nil {
		return false
	}
	if err := c.store.GetJSON(ctx, key, v); err != nil {
		return false
	}
	metrics.CacheHits.WithLabelValues(endpoint).Inc()
	return true
}

// putCached stores a response. Cache write failures only log: the
// fetched data is still returned to the caller.
func (c *Client) putCached(ctx context.Context, key string, v interface{}, ttl *time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.SetJSON(ctx, key, v, ttl); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// lockKey takes a short distributed lock around an upstream fetch so
// concurrent requests for the same key hit the API once. Without a
// locker, or when the lock cannot be taken, the fetch proceeds anyway.
func (c *Client) lockKey(ctx context.Context, key string) func() {
	if c.locker == nil {
		return func() {}
	}

	mutex := c.locker.NewMutex("fetch:"+key, redsync.WithExpiry(10*time.Second), redsync.WithTries(20))
	if err := mutex.LockContext(ctx); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("fetch lock not acquired")
		return func() {}
	}

	return func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("fetch lock release failed")
		}
	}
}
