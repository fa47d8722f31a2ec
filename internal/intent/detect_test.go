package intent

import (
	"reflect"
	"testing"

	"github.com/chainchat/chainchat/internal/models"
)

const (
	testAddr  = "0x1234567890123456789012345678901234567890"
	testAddr2 = "0xabcdef1234567890abcdef1234567890abcdef12"
	testHash  = "0x4e3a3754410177e6937ef1f84bba68ea139e8d1a2258c5f85db9f1cd715a1bdd"
)

func TestDetectGasPrice(t *testing.T) {
	tests := []struct {
		text    string
		matched bool
		network string
	}{
		{"what's the gas price on polygon?", true, "polygon"},
		{"What is the current gas fee?", true, "ethereum"},
		{"how much gas does it cost on bsc?", true, "bsc"},
		{"what's the transaction fee right now?", true, "ethereum"},
		{"network fee on arbitrum", true, "arbitrum"},
		{"how much gas on avalanche?", true, "avalanche"},
		{"tell me a joke", false, ""},
		{"my car runs on gasoline", false, ""},
	}

	for _, test := range tests {
		result := DetectGasPrice(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectGasPrice(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Network != test.network {
			t.Errorf("DetectGasPrice(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
		if result.Subject != "" {
			t.Errorf("DetectGasPrice(%q) subject = %q, expected none", test.text, result.Subject)
		}
	}
}

func TestDetectNftHoldings(t *testing.T) {
	tests := []struct {
		text    string
		matched bool
		subject string
		network string
	}{
		{"show nft holdings for " + testAddr + " on base", true, testAddr, "base"},
		{"which nfts does " + testAddr2 + " hold?", true, testAddr2, "ethereum"},
		{"show non-fungible tokens for " + testAddr, true, testAddr, "ethereum"},
		{"show nft collection", true, "", "ethereum"},
		// keyword fallback: bare address plus an nft word
		{"anything in " + testAddr + "? collectibles maybe", true, testAddr, "ethereum"},
		// bare address without nft vocabulary is not an nft query
		{"check balance of " + testAddr, false, "", ""},
		{"what does this wallet do", false, "", ""},
	}

	for _, test := range tests {
		result := DetectNftHoldings(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectNftHoldings(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Subject != test.subject {
			t.Errorf("DetectNftHoldings(%q) subject = %q, expected %q", test.text, result.Subject, test.subject)
		}
		if result.Network != test.network {
			t.Errorf("DetectNftHoldings(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
	}
}

func TestDetectSpotPrice(t *testing.T) {
	tests := []struct {
		text     string
		matched  bool
		currency string
		network  string
	}{
		{"what's the spot price of whitelisted tokens?", true, "USD", "ethereum"},
		{"show token price in EUR", true, "EUR", "ethereum"},
		{"spot price on polygon in JPY", true, "JPY", "polygon"},
		{"price of tokens in inr", true, "INR", "ethereum"},
		{"what's the price in gbp on base", true, "GBP", "base"},
		{"hello there", false, "", ""},
	}

	for _, test := range tests {
		result := DetectSpotPrice(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectSpotPrice(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Currency != test.currency {
			t.Errorf("DetectSpotPrice(%q) currency = %q, expected %q", test.text, result.Currency, test.currency)
		}
		if result.Network != test.network {
			t.Errorf("DetectSpotPrice(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
		if result.Subject != "" {
			t.Errorf("DetectSpotPrice(%q) subject = %q, expected none", test.text, result.Subject)
		}
	}
}

func TestDetectTokenValue(t *testing.T) {
	tests := []struct {
		text    string
		matched bool
		subject string
		network string
	}{
		{"what's the value of token " + testAddr + "?", true, testAddr, "ethereum"},
		{"value of erc20 " + testAddr2 + " on matic", true, testAddr2, "matic"},
		{"what's the current token value?", true, "", "ethereum"},
		// keyword fallback: bare address plus value vocabulary
		{"how much is " + testAddr + " worth right now?", true, testAddr, "ethereum"},
		// details phrasing must never read as a value query
		{"show token details and value for " + testAddr, false, "", ""},
		{"get token info and value for " + testAddr, false, "", ""},
		// bare address without value vocabulary
		{testAddr, false, "", ""},
		{"what a lovely day", false, "", ""},
	}

	for _, test := range tests {
		result := DetectTokenValue(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectTokenValue(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Subject != test.subject {
			t.Errorf("DetectTokenValue(%q) subject = %q, expected %q", test.text, result.Subject, test.subject)
		}
		if result.Network != test.network {
			t.Errorf("DetectTokenValue(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
	}
}

func TestDetectTokenDetails(t *testing.T) {
	tests := []struct {
		text    string
		matched bool
		subject string
		network string
	}{
		{"tell me about the token details for " + testAddr, true, testAddr, "ethereum"},
		{"get token info for " + testAddr2 + " on bsc", true, testAddr2, "bsc"},
		{"detailed information about this project", true, "", "ethereum"},
		// keyword fallback: bare address plus details vocabulary
		{testAddr + " stats please", true, testAddr, "ethereum"},
		{testAddr + " looks nice", false, "", ""},
		{"just chatting", false, "", ""},
	}

	for _, test := range tests {
		result := DetectTokenDetails(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectTokenDetails(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Subject != test.subject {
			t.Errorf("DetectTokenDetails(%q) subject = %q, expected %q", test.text, result.Subject, test.subject)
		}
		if result.Network != test.network {
			t.Errorf("DetectTokenDetails(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
	}
}

func TestDetectTokenProfitLoss(t *testing.T) {
	tests := []struct {
		text      string
		matched   bool
		subject   string
		network   string
		timerange string
	}{
		// bare address plus "profit" is enough, window defaults to 1day
		{"profit for " + testAddr, true, testAddr, "ethereum", "1day"},
		{"token profit and loss for " + testAddr + " over 30 days", true, testAddr, "ethereum", "30day"},
		{"what's the roi of token " + testAddr2 + " over seven days", true, testAddr2, "ethereum", "7day"},
		{"p&l for token " + testAddr + " all time", true, testAddr, "ethereum", "all"},
		{"profit of token " + testAddr + " over 365 days on optimism", true, testAddr, "optimism", "365day"},
		{"return information for " + testAddr2, true, testAddr2, "ethereum", "1day"},
		{testAddr + " is cool", false, "", "", ""},
		{"how was your week", false, "", "", ""},
	}

	for _, test := range tests {
		result := DetectTokenProfitLoss(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectTokenProfitLoss(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Subject != test.subject {
			t.Errorf("DetectTokenProfitLoss(%q) subject = %q, expected %q", test.text, result.Subject, test.subject)
		}
		if result.Network != test.network {
			t.Errorf("DetectTokenProfitLoss(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
		if result.Timerange != test.timerange {
			t.Errorf("DetectTokenProfitLoss(%q) timerange = %q, expected %q", test.text, result.Timerange, test.timerange)
		}
	}
}

func TestDetectTransactionTrace(t *testing.T) {
	tests := []struct {
		text    string
		matched bool
		subject string
		block   string
		network string
	}{
		{"trace tx " + testHash + " in block 18500000", true, testHash, "18500000", "ethereum"},
		{"tx trace for " + testHash + " on optimism in block 1000000", true, testHash, "1000000", "optimism"},
		// a hash alone matches, but without a block the result stays partial
		{"what happened in " + testHash, true, testHash, "", "ethereum"},
		// trace phrasing without a hash is a partial match too
		{"get the transaction trace", true, "", "", "ethereum"},
		{"transaction details for block 18500000", true, "", "18500000", "ethereum"},
		{"hello there", false, "", "", ""},
	}

	for _, test := range tests {
		result := DetectTransactionTrace(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectTransactionTrace(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Subject != test.subject {
			t.Errorf("DetectTransactionTrace(%q) subject = %q, expected %q", test.text, result.Subject, test.subject)
		}
		if result.BlockNumber != test.block {
			t.Errorf("DetectTransactionTrace(%q) block = %q, expected %q", test.text, result.BlockNumber, test.block)
		}
		if result.Network != test.network {
			t.Errorf("DetectTransactionTrace(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
	}
}

func TestExtractBlockNumber(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"block 18500000", "18500000"},
		{"Block 18500000", "18500000"},
		{"blk 18500000", "18500000"},
		{"block number 18500000", "18500000"},
		{"block: 18500000", "18500000"},
		{"block no 42", "42"},
		// bare 7+ digit fallback
		{"somewhere around 21000000 probably", "21000000"},
		{"block #18500000", "18500000"},
		{"no numbers here", ""},
		// digits inside a hash never read as a block number
		{"tx " + testHash, ""},
		{"only 123456 digits", ""},
	}

	for _, test := range tests {
		result := extractBlockNumber(test.text)
		if result != test.expected {
			t.Errorf("extractBlockNumber(%q) = %q, expected %q", test.text, result, test.expected)
		}
	}
}

func TestDetectTransactionHistory(t *testing.T) {
	tests := []struct {
		text    string
		matched bool
		subject string
		network string
	}{
		{"show the transaction history for " + testAddr + " on aurora", true, testAddr, "aurora"},
		{"recent transactions for " + testAddr2, true, testAddr2, "ethereum"},
		{"list all transactions sent by " + testAddr, true, testAddr, "ethereum"},
		{"show the tx log", true, "", "ethereum"},
		// keyword fallback: bare address plus history vocabulary
		{testAddr + " activity", true, testAddr, "ethereum"},
		{testAddr + " is my wallet", false, "", ""},
		{"good morning", false, "", ""},
	}

	for _, test := range tests {
		result := DetectTransactionHistory(test.text)
		if result.Matched != test.matched {
			t.Errorf("DetectTransactionHistory(%q) matched = %v, expected %v", test.text, result.Matched, test.matched)
			continue
		}
		if result.Subject != test.subject {
			t.Errorf("DetectTransactionHistory(%q) subject = %q, expected %q", test.text, result.Subject, test.subject)
		}
		if result.Network != test.network {
			t.Errorf("DetectTransactionHistory(%q) network = %q, expected %q", test.text, result.Network, test.network)
		}
	}
}

func TestDetectAll_Idempotent(t *testing.T) {
	texts := []string{
		"what's the gas price on polygon?",
		"token profit and loss for " + testAddr + " over 30 days",
		"trace tx " + testHash + " in block 18500000",
		"hello, how are you?",
	}

	for _, text := range texts {
		first := DetectAll(text)
		second := DetectAll(text)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("DetectAll(%q) is not deterministic:\nfirst:  %+v\nsecond: %+v", text, first, second)
		}
	}
}

func TestDetectionIntentKinds(t *testing.T) {
	detections := DetectAll("anything")
	checks := []struct {
		got      models.Intent
		expected models.Intent
	}{
		{detections.GasPrice.Intent, models.IntentGasPrice},
		{detections.NftHoldings.Intent, models.IntentNftHoldings},
		{detections.SpotPrice.Intent, models.IntentSpotPrice},
		{detections.TokenValue.Intent, models.IntentTokenValue},
		{detections.TokenDetails.Intent, models.IntentTokenDetails},
		{detections.TokenProfitLoss.Intent, models.IntentTokenProfitLoss},
		{detections.TransactionTrace.Intent, models.IntentTransactionTrace},
		{detections.TransactionHistory.Intent, models.IntentTransactionHistory},
	}

	for _, check := range checks {
		if check.got != check.expected {
			t.Errorf("Detection tagged %q, expected %q", check.got, check.expected)
		}
	}
}
