package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var profitLossPatterns = compilePatterns(
	`(?:what(?:'s| is) the|current|check|get|show) (?:profit|loss|profitloss|profit and loss|profit/loss|p&l|roi|return)`,
	`(?:token|erc20) (?:profit|loss|profitloss|profit and loss|profit/loss|p&l|roi|return)`,
	`how much (?:profit|loss|return) (?:for|from) (?:token|erc20)`,
	`(?:profit|loss|profitloss|profit and loss|profit/loss|p&l|roi|return) (?:of|for|from) (?:token|erc20)`,
	`(?:profit|loss|profitloss|profit and loss|profit/loss|p&l|roi|return) (?:information|data|stats|statistics)`,
)

var profitLossKeywords = []string{"profit", "loss", "profitloss", "roi", "return", "p&l", "gain"}

// DetectTokenProfitLoss matches questions about a token position's
// performance over a time window. A bare address still counts when a
// profit/loss keyword appears alongside it.
func DetectTokenProfitLoss(text string) models.Detection {
	result := models.Detection{Intent: models.IntentTokenProfitLoss}

	lowered := strings.ToLower(text)
	matched := anyMatch(profitLossPatterns, lowered)
	address := extractAddress(text)

	if !matched && address == "" {
		return result
	}
	if !matched && !containsAny(lowered, profitLossKeywords) {
		return result
	}

	result.Matched = true
	result.Subject = address
	result.Network = extractNetwork(lowered)
	result.Timerange = extractTimerange(lowered)
	return result
}
