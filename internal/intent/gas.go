package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var gasPatterns = compilePatterns(
	`(?:what(?:'s| is) the|current|check|get|show) (?:gas|gas price|gas fee)`,
	`gas (?:price|fee|cost)`,
	`how much (?:gas|fee)`,
	`transaction fee`,
	`network fee`,
)

// DetectGasPrice matches questions about current gas prices. Gas queries
// carry no subject, only the network.
func DetectGasPrice(text string) models.Detection {
	result := models.Detection{Intent: models.IntentGasPrice}

	lowered := strings.ToLower(text)
	if !anyMatch(gasPatterns, lowered) {
		return result
	}

	result.Matched = true
	result.Network = extractNetwork(lowered)
	return result
}
