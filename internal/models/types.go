package models

import (
	"encoding/json"
	"time"
)

// Intent identifies one supported blockchain query type.
type Intent string

const (
	IntentGasPrice           Intent = "gas_price"
	IntentNftHoldings        Intent = "nft_holdings"
	IntentSpotPrice          Intent = "spot_price"
	IntentTokenValue         Intent = "token_value"
	IntentTokenDetails       Intent = "token_details"
	IntentTokenProfitLoss    Intent = "token_profit_loss"
	IntentTransactionTrace   Intent = "transaction_trace"
	IntentTransactionHistory Intent = "transaction_history"
)

// Intents lists all supported intents in ladder priority order: the first
// usable detection in this order wins a turn.
var Intents = []Intent{
	IntentTransactionTrace,
	IntentGasPrice,
	IntentNftHoldings,
	IntentTokenValue,
	IntentTokenDetails,
	IntentTokenProfitLoss,
	IntentSpotPrice,
	IntentTransactionHistory,
}

// Detection is the outcome of running one intent matcher over one message.
// A zero Detection (Matched false, all fields empty) means no match. Absent
// fields stay empty strings.
type Detection struct {
	Intent      Intent `json:"intent"`
	Matched     bool   `json:"matched"`
	Subject     string `json:"subject,omitempty"`      // wallet/token address or tx hash
	Network     string `json:"network,omitempty"`      // alias, never a chain ID
	Currency    string `json:"currency,omitempty"`     // spot price only
	Timerange   string `json:"timerange,omitempty"`    // profit/loss only
	BlockNumber string `json:"block_number,omitempty"` // transaction trace only
}

// Resolution is the single winning detection for a message, with the network
// alias resolved to a chain ID under the caller policy (unknown alias falls
// back to DefaultChainID).
type Resolution struct {
	Detection
	ChainID string `json:"chain_id"`
}

// Timeranges are the canonical profit/loss window tokens the portfolio
// endpoints accept.
var Timeranges = []string{"1day", "7day", "30day", "90day", "180day", "365day", "all"}

// DefaultTimerange is used when no window phrase is found or the requested
// one is not canonical.
const DefaultTimerange = "1day"

// ValidTimerange reports whether value is a canonical timerange token.
func ValidTimerange(value string) bool {
	for _, timerange := range Timeranges {
		if value == timerange {
			return true
		}
	}
	return false
}

// Currencies lists the fiat quote currencies supported for spot prices.
var Currencies = []string{"USD", "INR", "EUR", "GBP", "JPY", "CNY"}

// DefaultCurrency is used when no currency is mentioned.
const DefaultCurrency = "USD"

// ChatRequest is the inbound payload for a chat turn.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse carries the model reply plus whatever detection grounded it.
type ChatResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Reply          string                 `json:"reply"`
	Intent         *Resolution            `json:"intent,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// DetectRequest is the inbound payload for a raw detection pass.
type DetectRequest struct {
	Message string `json:"message"`
}

// TraceRequest asks for a transaction trace directly, bypassing detection.
type TraceRequest struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber string `json:"block_number"`
	Network     string `json:"network,omitempty"`
}

// ToJSON converts any struct to JSON string
func ToJSON(v interface{}) string {
	bytes, _ := json.Marshal(v)
	return string(bytes)
}
