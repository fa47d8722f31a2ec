package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var historyPatterns = compilePatterns(
	`(?:what(?:'s| is| are)|show|get|fetch|check) (?:the )?(?:transaction|tx) (?:history|record|log)`,
	`(?:transaction|tx) (?:history|record|log)`,
	`(?:history|record|log) (?:of|for) (?:transaction|tx|wallet|address)`,
	`(?:past|recent|previous) (?:transaction|tx)`,
	`what (?:transaction|tx) (?:has|have) (?:wallet|address)`,
	`(?:list|show) (?:all|recent) (?:transaction|tx)`,
)

var historyKeywords = []string{"history", "transactions", "tx", "record", "log", "activity"}

// DetectTransactionHistory matches questions about a wallet's past
// transactions. A bare address still counts when a history keyword appears
// alongside it.
func DetectTransactionHistory(text string) models.Detection {
	result := models.Detection{Intent: models.IntentTransactionHistory}

	lowered := strings.ToLower(text)
	matched := anyMatch(historyPatterns, lowered)
	address := extractAddress(text)

	if !matched && address == "" {
		return result
	}
	if !matched && !containsAny(lowered, historyKeywords) {
		return result
	}

	result.Matched = true
	result.Subject = address
	result.Network = extractNetwork(lowered)
	return result
}
