package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var tracePatterns = compilePatterns(
	`(?:what(?:'s| is) the|get|fetch|show|find) (?:transaction trace|tx trace|trace)`,
	`(?:transaction|tx) (?:trace|details|information)`,
	`trace (?:of|for) (?:transaction|tx)`,
	`(?:trace|details) (?:of|for|about) (?:transaction|tx)`,
	`transaction (?:execution|call) (?:trace|details)`,
)

// DetectTransactionTrace matches questions about a transaction's execution
// trace. A 64-hex-digit hash counts as a match on its own, but the result
// is only usable downstream when a block number was extracted too, since
// the trace endpoint needs both.
func DetectTransactionTrace(text string) models.Detection {
	result := models.Detection{Intent: models.IntentTransactionTrace}

	lowered := strings.ToLower(text)
	matched := anyMatch(tracePatterns, lowered)
	hash := extractTxHash(text)

	if !matched && hash == "" {
		return result
	}

	result.Matched = true
	result.Subject = hash
	result.BlockNumber = extractBlockNumber(text)
	result.Network = extractNetwork(lowered)
	return result
}
