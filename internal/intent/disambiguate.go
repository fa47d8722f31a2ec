package intent

import (
	"strings"

	"github.com/chainchat/chainchat/internal/models"
)

// disambiguationKeywords score conflicting detections that claim the same
// subject. Deliberately short lists, separate from the matching templates.
var disambiguationKeywords = map[models.Intent][]string{
	models.IntentTokenValue:      {"value", "worth", "price", "cost", "how much"},
	models.IntentTokenDetails:    {"details", "info", "information", "stats", "statistics", "data"},
	models.IntentTokenProfitLoss: {"profit", "loss", "profitloss", "roi", "return", "p&l", "gain"},
}

// conflictPairs lists the known overlapping intents in resolution order.
// Ties favor token value over details, and profit/loss over either.
var conflictPairs = []struct {
	first, second models.Intent
	tieWinner     models.Intent
}{
	{models.IntentTokenValue, models.IntentTokenDetails, models.IntentTokenValue},
	{models.IntentTokenValue, models.IntentTokenProfitLoss, models.IntentTokenProfitLoss},
	{models.IntentTokenDetails, models.IntentTokenProfitLoss, models.IntentTokenProfitLoss},
}

// keywordScore counts how many of an intent's disambiguation keywords occur
// in the lowered text.
func keywordScore(lowered string, intent models.Intent) int {
	score := 0
	for _, keyword := range disambiguationKeywords[intent] {
		if strings.Contains(lowered, keyword) {
			score++
		}
	}
	return score
}

// Disambiguate resolves subject conflicts between detections in place. When
// two matched detections claim the same subject, the one whose keywords
// appear more often in the text survives and the loser's claim is cleared.
// Only the documented pairs are deconflicted; a triple overlap is resolved
// by sequential pairwise elimination.
func Disambiguate(text string, detections *Detections) {
	lowered := strings.ToLower(text)
	for _, pair := range conflictPairs {
		first := detections.byIntent(pair.first)
		second := detections.byIntent(pair.second)
		if !first.Matched || !second.Matched {
			continue
		}
		if first.Subject == "" || first.Subject != second.Subject {
			continue
		}

		firstScore := keywordScore(lowered, pair.first)
		secondScore := keywordScore(lowered, pair.second)

		winner := pair.tieWinner
		if firstScore > secondScore {
			winner = pair.first
		} else if secondScore > firstScore {
			winner = pair.second
		}

		if winner == pair.first {
			clearDetection(second)
		} else {
			clearDetection(first)
		}
	}
}

// clearDetection drops a losing detection's claim. The matched flag stays
// set; a matched result without a subject never wins the selection ladder.
func clearDetection(detection *models.Detection) {
	detection.Subject = ""
	detection.Network = ""
}
