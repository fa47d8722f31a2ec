package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var spotPricePatterns = compilePatterns(
	`(?:what(?:'s| is) the|current|check|get|show) (?:spot price|token price|price)`,
	`price (?:of|for) (?:tokens?|whitelisted tokens?)`,
	`token (?:price|value)`,
	`spot (?:price|value)`,
)

// DetectSpotPrice matches questions about whitelisted token prices. Spot
// queries carry a currency and a network but no subject, since the upstream
// endpoint prices a fixed whitelist rather than a single token.
func DetectSpotPrice(text string) models.Detection {
	result := models.Detection{Intent: models.IntentSpotPrice}

	lowered := strings.ToLower(text)
	if !anyMatch(spotPricePatterns, lowered) {
		return result
	}

	result.Matched = true
	result.Currency = extractCurrency(lowered)
	result.Network = extractNetwork(lowered)
	return result
}
