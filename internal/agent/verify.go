package agent

import (
	"fmt"
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

// verificationKeywords are per-intent indicators that a reply actually drew
// on the fetched data. Any single hit counts; the check is deliberately
// loose since models paraphrase.
var verificationKeywords = map[models.Intent][]string{
	models.IntentGasPrice:           {"gas", "gwei", "fee", "price"},
	models.IntentNftHoldings:        {"nft", "collection", "token", "holdings", "wallet"},
	models.IntentSpotPrice:          {"price", "spot", "token", "value"},
	models.IntentTokenValue:         {"token", "value", "worth", "usd", "protocol"},
	models.IntentTokenDetails:       {"token", "details", "name", "symbol", "price", "value", "amount"},
	models.IntentTokenProfitLoss:    {"profit", "loss", "roi", "return", "performance", "usd"},
	models.IntentTransactionTrace:   {"transaction", "trace", "tx", "hash", "block", "from", "to", "gas", "logs", "calls"},
	models.IntentTransactionHistory: {"transaction", "history", "wallet", "sent", "received", "transfer", "approve"},
}

// Verified reports whether the reply shows evidence of the fetched data: the
// intent's identifier (address, hash, network or currency) or any of its
// verification keywords.
func Verified(res models.Resolution, reply string) bool {
	lowered := strings.ToLower(reply)

	if res.Subject != "" && strings.Contains(lowered, strings.ToLower(res.Subject)) {
		return true
	}
	switch res.Intent {
	case models.IntentGasPrice:
		if res.Network != "" && strings.Contains(lowered, strings.ToLower(res.Network)) {
			return true
		}
	case models.IntentSpotPrice:
		if strings.Contains(lowered, strings.ToLower(resolvedCurrency(res))) {
			return true
		}
	}

	for _, keyword := range verificationKeywords[res.Intent] {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// spliceNouns name the data kind in the correction line per intent.
var spliceNouns = map[models.Intent]string{
	models.IntentGasPrice:           "gas prices",
	models.IntentNftHoldings:        "NFT data",
	models.IntentSpotPrice:          "spot prices",
	models.IntentTokenValue:         "token value information",
	models.IntentTokenDetails:       "token details information",
	models.IntentTokenProfitLoss:    "token profit/loss information",
	models.IntentTransactionTrace:   "transaction trace information",
	models.IntentTransactionHistory: "transaction history information",
}

// Splice appends the canonical data block to a reply that ignored it, in
// the agent's own voice.
func Splice(intent models.Intent, reply, block string) string {
	noun, ok := spliceNouns[intent]
	if !ok {
		noun = "requested"
	}
	return fmt.Sprintf("%s\n\nActually, let me provide you with the exact %s:\n\n%s", reply, noun, block)
}
