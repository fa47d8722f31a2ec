package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

// tokenDetailsExclusions keep "token details" phrasings from being misread
// as value queries. Checked before any other token value logic.
var tokenDetailsExclusions = compilePatterns(
	`token details`,
	`get token details`,
	`(?:token|erc20) (?:details|info|information)`,
)

var tokenValuePatterns = compilePatterns(
	`(?:what(?:'s| is) the|current|check|get|show) (?:value|price|worth) of (?:token|erc20)`,
	`(?:token|erc20) (?:value|price|worth)`,
	`how much is (?:token|erc20) worth`,
	`value of (?:token|erc20)`,
	`current value`,
	`token value`,
	`token worth`,
)

var tokenValueKeywords = []string{"value", "worth", "price", "cost", "how much"}

// DetectTokenValue matches questions about what a token position is worth.
// A bare address still counts when a value keyword appears alongside it.
func DetectTokenValue(text string) models.Detection {
	result := models.Detection{Intent: models.IntentTokenValue}

	lowered := strings.ToLower(text)
	if anyMatch(tokenDetailsExclusions, lowered) {
		return result
	}

	matched := anyMatch(tokenValuePatterns, lowered)
	address := extractAddress(text)

	if !matched && address == "" {
		return result
	}
	if !matched && !containsAny(lowered, tokenValueKeywords) {
		return result
	}

	result.Matched = true
	result.Subject = address
	result.Network = extractNetwork(lowered)
	return result
}
