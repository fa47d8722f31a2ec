package intent

import (
	"regexp"
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

// Structural patterns shared by the matchers. Addresses and hashes are
// extracted from the original text so the caller keeps the user's casing;
// keyword templates run against the lowercased text instead.
var (
	addressPattern = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
	txHashPattern  = regexp.MustCompile(`0x[a-fA-F0-9]{64}`)

	// "block 18500000", "blk #18500000", "block number: 18500000" and so on.
	// A bare run of 7+ digits is the fallback for phrasings like "in 18500000".
	blockPhrasePattern = regexp.MustCompile(`(?i)(?:block|blk)(?:\s+(?:number|#|num|no))?(?:\s*[:=]\s*|\s+)(\d+)`)
	bareBlockPattern   = regexp.MustCompile(`\b\d{7,}\b`)
)

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, pattern := range patterns {
		compiled[i] = regexp.MustCompile(pattern)
	}
	return compiled
}

func anyMatch(patterns []*regexp.Regexp, lowered string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(lowered) {
			return true
		}
	}
	return false
}

func containsAny(lowered string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func extractAddress(text string) string {
	return addressPattern.FindString(text)
}

func extractTxHash(text string) string {
	return txHashPattern.FindString(text)
}

func extractBlockNumber(text string) string {
	if match := blockPhrasePattern.FindStringSubmatch(text); match != nil {
		return match[1]
	}
	return bareBlockPattern.FindString(text)
}

// extractNetwork scans the alias table in declaration order and returns the
// first alias mentioned in the text, defaulting to ethereum.
func extractNetwork(lowered string) string {
	for _, alias := range models.NetworkAliases() {
		if strings.Contains(lowered, alias.Alias) {
			return alias.Alias
		}
	}
	return models.DefaultNetwork
}

// extractCurrency returns the first supported currency mentioned in the
// text, defaulting to USD.
func extractCurrency(lowered string) string {
	for _, currency := range models.Currencies {
		if strings.Contains(lowered, strings.ToLower(currency)) {
			return currency
		}
	}
	return models.DefaultCurrency
}

// timerangePhrases maps window phrasings to canonical tokens in scan order.
var timerangePhrases = []struct {
	pattern   *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`(?:1|one)[ -]?day`), "1day"},
	{regexp.MustCompile(`(?:7|seven)[ -]?day`), "7day"},
	{regexp.MustCompile(`(?:30|thirty)[ -]?day`), "30day"},
	{regexp.MustCompile(`(?:90|ninety)[ -]?day`), "90day"},
	{regexp.MustCompile(`(?:180|one hundred eighty)[ -]?day`), "180day"},
	{regexp.MustCompile(`(?:365|one year)[ -]?day`), "365day"},
	{regexp.MustCompile(`all[ -]?time`), "all"},
}

// extractTimerange maps a window phrase to its canonical token, defaulting
// to 1day when nothing matches.
func extractTimerange(lowered string) string {
	for _, phrase := range timerangePhrases {
		if phrase.pattern.MatchString(lowered) {
			return phrase.canonical
		}
	}
	return models.DefaultTimerange
}
