package oneinch

import "encoding/json"

// GasFee is one urgency tier of the gas price feed. Values are wei strings.
type GasFee struct {
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
}

// GasPrices is the EIP-1559 gas price feed for one chain.
type GasPrices struct {
	BaseFee string `json:"baseFee"`
	Low     GasFee `json:"low"`
	Medium  GasFee `json:"medium"`
	High    GasFee `json:"high"`
	Instant GasFee `json:"instant"`
}

// NftHoldings lists the NFT assets held by one wallet.
type NftHoldings struct {
	Assets []NftAsset `json:"assets"`
}

// NftAsset is a single NFT. TokenID stays raw because collections use
// both string and numeric ids.
type NftAsset struct {
	Name       string          `json:"name"`
	TokenID    json.RawMessage `json:"tokenId"`
	TokenType  string          `json:"tokenType"`
	Standard   string          `json:"standard"`
	Collection NftCollection   `json:"collection"`
}

type NftCollection struct {
	Name string `json:"name"`
}

// CurrentValue is the portfolio value breakdown for one token address,
// grouped by protocol.
type CurrentValue struct {
	Result []ProtocolValue `json:"result"`
}

type ProtocolValue struct {
	ProtocolName string       `json:"protocol_name"`
	Result       []ChainValue `json:"result"`
}

type ChainValue struct {
	ChainID  int     `json:"chain_id"`
	ValueUSD float64 `json:"value_usd"`
}

// TokenDetails carries per-chain position details for one token address.
type TokenDetails struct {
	Result []TokenDetail `json:"result"`
}

// TokenDetail is one chain's position in a token. ROI and AbsProfitUSD
// are nil when the API has no closed-position data for the window.
type TokenDetail struct {
	ChainID      int      `json:"chain_id"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	Amount       float64  `json:"amount"`
	PriceToUSD   float64  `json:"price_to_usd"`
	ValueUSD     float64  `json:"value_usd"`
	ROI          *float64 `json:"roi"`
	AbsProfitUSD *float64 `json:"abs_profit_usd"`
}

// ProfitLoss is the profit and loss report for one token address.
type ProfitLoss struct {
	Result []ProfitLossEntry `json:"result"`
}

// ProfitLossEntry reports one chain's P/L. A nil ChainID is the
// cross-chain aggregate row.
type ProfitLossEntry struct {
	ChainID      *int    `json:"chain_id"`
	AbsProfitUSD float64 `json:"abs_profit_usd"`
	ROI          float64 `json:"roi"`
}

// HistoryResponse is a page of wallet history events.
type HistoryResponse struct {
	Items        []HistoryItem `json:"items"`
	CacheCounter int           `json:"cache_counter"`
}

type HistoryItem struct {
	Details TxDetails `json:"details"`
}

type TxDetails struct {
	TxHash       string        `json:"txHash"`
	Type         string        `json:"type"`
	Status       string        `json:"status"`
	BlockNumber  int64         `json:"blockNumber"`
	FromAddress  string        `json:"fromAddress"`
	ToAddress    string        `json:"toAddress"`
	TokenActions []TokenAction `json:"tokenActions"`
}

type TokenAction struct {
	Address   string `json:"address"`
	Standard  string `json:"standard"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

// TraceResponse wraps a single-transaction block trace.
type TraceResponse struct {
	TransactionTrace TransactionTrace `json:"transactionTrace"`
}

// TransactionTrace keeps its scalar fields raw: the traces API mixes hex
// strings and plain numbers depending on chain and transaction type.
type TransactionTrace struct {
	TxHash   string          `json:"txHash"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Value    json.RawMessage `json:"value"`
	GasLimit json.RawMessage `json:"gasLimit"`
	GasUsed  json.RawMessage `json:"gasUsed"`
	GasPrice json.RawMessage `json:"gasPrice"`
	Status   json.RawMessage `json:"status"`
	Logs     []TraceLog      `json:"logs"`
	Calls    []TraceCall     `json:"calls"`
}

type TraceLog struct {
	Contract string   `json:"contract"`
	Data     string   `json:"data"`
	Topics   []string `json:"topics"`
}

type TraceCall struct {
	Type  string          `json:"type"`
	From  string          `json:"from"`
	To    string          `json:"to"`
	Value json.RawMessage `json:"value"`
}

// Scalar renders a raw JSON scalar the way the API sent it, unquoting
// strings. Missing and null values render as the fallback.
func Scalar(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
