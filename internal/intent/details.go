package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var tokenDetailsPatterns = compilePatterns(
	`(?:what(?:'s| is| are)|tell me about|show|get|fetch|check) (?:the )?(?:token|erc20) (?:details|info|information)`,
	`(?:token|erc20) (?:details|info|information)`,
	`details (?:of|about|for) (?:token|erc20)`,
	`information (?:on|about) (?:token|erc20)`,
	`token details`,
	`get token details`,
	`detailed information`,
)

var tokenDetailsKeywords = []string{"details", "info", "information", "stats", "statistics", "data"}

// DetectTokenDetails matches questions about a token's metadata and position
// stats. A bare address still counts when a details keyword appears
// alongside it.
func DetectTokenDetails(text string) models.Detection {
	result := models.Detection{Intent: models.IntentTokenDetails}

	lowered := strings.ToLower(text)
	matched := anyMatch(tokenDetailsPatterns, lowered)
	address := extractAddress(text)

	if !matched && address == "" {
		return result
	}
	if !matched && !containsAny(lowered, tokenDetailsKeywords) {
		return result
	}

	result.Matched = true
	result.Subject = address
	result.Network = extractNetwork(lowered)
	return result
}
