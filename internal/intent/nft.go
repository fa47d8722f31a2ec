package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

var nftPatterns = compilePatterns(
	`(?:what|which|show|get|fetch|check) (?:nfts?|non-fungible tokens?)`,
	`nfts? (?:holdings?|owned|collection)`,
	`(?:owned|holding) nfts?`,
	`nft (?:collection|portfolio|gallery)`,
	`what nfts? (?:does|do) .* (?:have|own|hold)`,
)

var nftKeywords = []string{"nft", "nfts", "collectible", "collectibles"}

// DetectNftHoldings matches questions about the NFTs a wallet owns. A bare
// address still counts when an NFT keyword appears alongside it.
func DetectNftHoldings(text string) models.Detection {
	result := models.Detection{Intent: models.IntentNftHoldings}

	lowered := strings.ToLower(text)
	matched := anyMatch(nftPatterns, lowered)
	address := extractAddress(text)

	if !matched && address == "" {
		return result
	}
	if !matched && !containsAny(lowered, nftKeywords) {
		return result
	}

	result.Matched = true
	result.Subject = address
	result.Network = extractNetwork(lowered)
	return result
}
