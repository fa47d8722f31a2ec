package intent

import "github.com/chainchat/chainchat/internal/models"

// Detections holds the outcome of one pass of every matcher over a single
// message.
type Detections struct {
	GasPrice           models.Detection
	NftHoldings        models.Detection
	SpotPrice          models.Detection
	TokenValue         models.Detection
	TokenDetails       models.Detection
	TokenProfitLoss    models.Detection
	TransactionTrace   models.Detection
	TransactionHistory models.Detection
}

// DetectAll runs every matcher over the text. Matchers are independent and
// stateless, so evaluation order does not matter.
func DetectAll(text string) *Detections {
	return &Detections{
		GasPrice:           DetectGasPrice(text),
		NftHoldings:        DetectNftHoldings(text),
		SpotPrice:          DetectSpotPrice(text),
		TokenValue:         DetectTokenValue(text),
		TokenDetails:       DetectTokenDetails(text),
		TokenProfitLoss:    DetectTokenProfitLoss(text),
		TransactionTrace:   DetectTransactionTrace(text),
		TransactionHistory: DetectTransactionHistory(text),
	}
}

func (d *Detections) byIntent(intent models.Intent) *models.Detection {
	switch intent {
	case models.IntentGasPrice:
		return &d.GasPrice
	case models.IntentNftHoldings:
		return &d.NftHoldings
	case models.IntentSpotPrice:
		return &d.SpotPrice
	case models.IntentTokenValue:
		return &d.TokenValue
	case models.IntentTokenDetails:
		return &d.TokenDetails
	case models.IntentTokenProfitLoss:
		return &d.TokenProfitLoss
	case models.IntentTransactionTrace:
		return &d.TransactionTrace
	default:
		return &d.TransactionHistory
	}
}

// Resolve runs detection and disambiguation over one message and selects
// the single intent, if any, to forward to data fetching. The bool is false
// when nothing usable matched, in which case the caller proceeds with an
// ungrounded chat turn.
func Resolve(text string) (models.Resolution, bool) {
	detections := DetectAll(text)
	Disambiguate(text, detections)
	return detections.Winner()
}

// Winner walks the priority ladder and returns the first usable detection.
// A trace needs both a hash and a block number, address-keyed intents need
// a subject, and gas and spot price count on their patterns alone.
func (d *Detections) Winner() (models.Resolution, bool) {
	switch {
	case d.TransactionTrace.Matched && d.TransactionTrace.Subject != "" && d.TransactionTrace.BlockNumber != "":
		return resolveChain(d.TransactionTrace), true
	case d.GasPrice.Matched:
		return resolveChain(d.GasPrice), true
	case d.NftHoldings.Matched && d.NftHoldings.Subject != "":
		return resolveChain(d.NftHoldings), true
	case d.TokenValue.Matched && d.TokenValue.Subject != "":
		return resolveChain(d.TokenValue), true
	case d.TokenDetails.Matched && d.TokenDetails.Subject != "":
		return resolveChain(d.TokenDetails), true
	case d.TokenProfitLoss.Matched && d.TokenProfitLoss.Subject != "":
		return resolveChain(d.TokenProfitLoss), true
	case d.SpotPrice.Matched:
		return resolveChain(d.SpotPrice), true
	case d.TransactionHistory.Matched && d.TransactionHistory.Subject != "":
		return resolveChain(d.TransactionHistory), true
	}
	return models.Resolution{}, false
}

// resolveChain maps the detection's network alias to a chain ID, falling
// back to Ethereum mainnet when the alias is unknown.
func resolveChain(detection models.Detection) models.Resolution {
	chainID, ok := models.ChainIDForNetwork(detection.Network)
	if !ok {
		chainID = models.DefaultChainID
	}
	return models.Resolution{Detection: detection, ChainID: chainID}
}
