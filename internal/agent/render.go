package agent

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/chainchat/chainchat/internal/models"
	"github.com/chainchat/chainchat/internal/oneinch"
)

// RenderData formats fetched intent data into the canonical grounding block
// the model is told to answer from. The block doubles as the fallback the
// verify stage splices into replies that ignored the data.
func RenderData(res models.Resolution, data interface{}) (string, error) {
	switch res.Intent {
	case models.IntentGasPrice:
		prices, ok := data.(*oneinch.GasPrices)
		if !ok {
			return "", fmt.Errorf("unexpected gas price payload %T", data)
		}
		return renderGasPrices(res, prices), nil
	case models.IntentNftHoldings:
		holdings, ok := data.(*oneinch.NftHoldings)
		if !ok {
			return "", fmt.Errorf("unexpected NFT holdings payload %T", data)
		}
		return renderNftHoldings(res, holdings), nil
	case models.IntentSpotPrice:
		prices, ok := data.(map[string]string)
		if !ok {
			return "", fmt.Errorf("unexpected spot price payload %T", data)
		}
		return renderSpotPrices(res, prices), nil
	case models.IntentTokenValue:
		value, ok := data.(*oneinch.CurrentValue)
		if !ok {
			return "", fmt.Errorf("unexpected token value payload %T", data)
		}
		return renderTokenValue(res, value), nil
	case models.IntentTokenDetails:
		details, ok := data.(*oneinch.TokenDetails)
		if !ok {
			return "", fmt.Errorf("unexpected token details payload %T", data)
		}
		return renderTokenDetails(res, details), nil
	case models.IntentTokenProfitLoss:
		pnl, ok := data.(*oneinch.ProfitLoss)
		if !ok {
			return "", fmt.Errorf("unexpected profit/loss payload %T", data)
		}
		return renderProfitLoss(res, pnl), nil
	case models.IntentTransactionTrace:
		trace, ok := data.(*oneinch.TraceResponse)
		if !ok {
			return "", fmt.Errorf("unexpected trace payload %T", data)
		}
		return renderTrace(res, trace), nil
	case models.IntentTransactionHistory:
		history, ok := data.(*oneinch.HistoryResponse)
		if !ok {
			return "", fmt.Errorf("unexpected history payload %T", data)
		}
		return renderHistory(res, history), nil
	default:
		return "", fmt.Errorf("no renderer for intent %q", res.Intent)
	}
}

func renderGasPrices(res models.Resolution, prices *oneinch.GasPrices) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Here are the current gas prices on %s:\n\n", displayNetwork(res.Network))
	b.WriteString("EXACT CURRENT GAS PRICES (use these EXACT values in your response):\n")
	fmt.Fprintf(&b, "- Base fee: %s gwei\n", gweiValue(prices.BaseFee))
	fmt.Fprintf(&b, "- Low: max fee %s gwei, priority fee %s gwei\n",
		gweiValue(prices.Low.MaxFeePerGas), gweiValue(prices.Low.MaxPriorityFeePerGas))
	fmt.Fprintf(&b, "- Medium: max fee %s gwei, priority fee %s gwei\n",
		gweiValue(prices.Medium.MaxFeePerGas), gweiValue(prices.Medium.MaxPriorityFeePerGas))
	fmt.Fprintf(&b, "- High: max fee %s gwei, priority fee %s gwei\n",
		gweiValue(prices.High.MaxFeePerGas), gweiValue(prices.High.MaxPriorityFeePerGas))
	fmt.Fprintf(&b, "- Instant: max fee %s gwei, priority fee %s gwei\n",
		gweiValue(prices.Instant.MaxFeePerGas), gweiValue(prices.Instant.MaxPriorityFeePerGas))
	b.WriteString("\nPlease provide a clear explanation of these gas prices and what they mean for users.")

	return b.String()
}

func renderNftHoldings(res models.Resolution, holdings *oneinch.NftHoldings) string {
	var entries []string
	for _, asset := range holdings.Assets {
		name := orDefault(asset.Name, "Unnamed NFT")
		collection := orDefault(asset.Collection.Name, "Unknown Collection")
		tokenID := oneinch.Scalar(asset.TokenID, "Unknown ID")

		entry := fmt.Sprintf("- %s (%s)\n  Token ID: %s\n  Type: %s\n  Standard: %s\n",
			name, collection, tokenID,
			orDefault(asset.TokenType, "Unknown"), orDefault(asset.Standard, "Unknown"))
		entries = append(entries, entry)
	}

	body := "No NFTs found in this wallet."
	if len(entries) > 0 {
		body = strings.Join(entries, "\n")
	}

	return fmt.Sprintf("Here are the NFTs held by %s on %s:\n\n%s\n\nPlease provide a clear summary of the NFT holdings.",
		models.ChecksumAddress(res.Subject), displayNetwork(res.Network), body)
}

// knownTokenSymbols maps whitelisted token addresses the spot price feed
// returns to their symbols, so the grounding block is readable.
var knownTokenSymbols = map[string]string{
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": "WETH",
	"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee": "ETH",
	"0x2c537e5624e4af88a7ae4060c022609376c8d0eb": "USDT",
	"0xc3d688b66703497daa19211eedff47f25384cdc3": "USDC",
	"0xd01409314acb3b245cea9500ece3f6fd4d70ea30": "LINK",
	"0xb8c77482e45f1f44de1745f52c74426c631bdd52": "BNB",
	"0x320623b8e4ff03373931769a31fc52a4e78b5d70": "RSR",
}

func renderSpotPrices(res models.Resolution, prices map[string]string) string {
	currency := resolvedCurrency(res)

	addresses := make([]string, 0, len(prices))
	for address := range prices {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	var lines []string
	for _, address := range addresses {
		symbol, ok := knownTokenSymbols[strings.ToLower(address)]
		if !ok {
			symbol = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s %s", symbol, prices[address], currency))
	}

	return fmt.Sprintf("Here are the current spot prices for %s in %s:\n\n%s\n\nPlease provide a clear summary of the token prices.",
		displayNetwork(res.Network), currency, strings.Join(lines, "\n"))
}

func renderTokenValue(res models.Resolution, value *oneinch.CurrentValue) string {
	chainID, _ := strconv.Atoi(res.ChainID)

	var lines []string
	var total float64
	for _, protocol := range value.Result {
		name := orDefault(protocol.ProtocolName, "Unknown")
		for _, chainValue := range protocol.Result {
			if chainValue.ChainID != chainID {
				continue
			}
			lines = append(lines, fmt.Sprintf("- Protocol: %s, Value: $%s USD", name, usd(chainValue.ValueUSD)))
			total += chainValue.ValueUSD
		}
	}
	lines = append(lines, fmt.Sprintf("\nTotal Value: $%s USD", usd(total)))

	return fmt.Sprintf("Here is the current value of token %s on %s:\n\n%s\n\nPlease provide a clear summary of the token value information.",
		models.ChecksumAddress(res.Subject), displayNetwork(res.Network), strings.Join(lines, "\n"))
}

func renderTokenDetails(res models.Resolution, details *oneinch.TokenDetails) string {
	chainID, _ := strconv.Atoi(res.ChainID)

	var entries []string
	for _, token := range details.Result {
		if token.ChainID != chainID {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "- Name: %s\n", orDefault(token.Name, "Unknown"))
		fmt.Fprintf(&b, "- Symbol: %s\n", orDefault(token.Symbol, "Unknown"))
		fmt.Fprintf(&b, "- Amount: %s\n", humanize.FormatFloat("#,###.######", token.Amount))
		fmt.Fprintf(&b, "- Price (USD): $%s\n", humanize.FormatFloat("#,###.######", token.PriceToUSD))
		fmt.Fprintf(&b, "- Value (USD): $%s\n", usd(token.ValueUSD))
		if token.ROI != nil {
			fmt.Fprintf(&b, "- ROI: %.2f%%\n", *token.ROI*100)
		}
		if token.AbsProfitUSD != nil {
			fmt.Fprintf(&b, "- Profit/Loss: %s\n", signedUSD(*token.AbsProfitUSD))
		}
		entries = append(entries, b.String())
	}

	body := "No token details found."
	if len(entries) > 0 {
		body = strings.Join(entries, "\n")
	}

	return fmt.Sprintf("Here are the details for token %s on %s:\n\n%s\n\nPlease provide a clear summary of the token information.",
		models.ChecksumAddress(res.Subject), displayNetwork(res.Network), body)
}

func renderProfitLoss(res models.Resolution, pnl *oneinch.ProfitLoss) string {
	chainID, _ := strconv.Atoi(res.ChainID)
	timerange := resolvedTimerange(res)

	var lines []string
	for _, entry := range pnl.Result {
		// A nil chain id is the cross-chain aggregate row.
		if entry.ChainID != nil && *entry.ChainID != chainID {
			continue
		}
		lines = append(lines,
			fmt.Sprintf("- Absolute Profit/Loss: %s USD", signedUSD(entry.AbsProfitUSD)),
			fmt.Sprintf("- ROI: %.4f%%", entry.ROI*100),
			fmt.Sprintf("- Time Range: %s", timerange))
	}

	body := "No profit/loss information found."
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}

	return fmt.Sprintf("Here is the profit/loss information for token %s on %s over %s:\n\n%s\n\nPlease provide a clear summary of the token's performance.",
		models.ChecksumAddress(res.Subject), displayNetwork(res.Network), timerange, body)
}

func renderTrace(res models.Resolution, trace *oneinch.TraceResponse) string {
	t := trace.TransactionTrace
	txHash := orDefault(t.TxHash, res.Subject)

	lines := []string{
		fmt.Sprintf("Transaction Hash: %s", txHash),
		fmt.Sprintf("From: %s", orDefault(t.From, "Unknown")),
		fmt.Sprintf("To: %s", orDefault(t.To, "Unknown")),
		fmt.Sprintf("Value: %s", oneinch.Scalar(t.Value, "0x0")),
		fmt.Sprintf("Gas Limit: %s", oneinch.Scalar(t.GasLimit, "Unknown")),
		fmt.Sprintf("Gas Used: %s", oneinch.Scalar(t.GasUsed, "Unknown")),
		fmt.Sprintf("Gas Price: %s", oneinch.Scalar(t.GasPrice, "Unknown")),
		fmt.Sprintf("Status: %s", oneinch.Scalar(t.Status, "Unknown")),
	}

	if len(t.Logs) > 0 {
		lines = append(lines, "", "Transaction Logs:")
		for i, logEntry := range t.Logs {
			lines = append(lines, "",
				fmt.Sprintf("Log #%d:", i+1),
				fmt.Sprintf("Contract: %s", orDefault(logEntry.Contract, "Unknown")),
				fmt.Sprintf("Data: %s", orDefault(logEntry.Data, "None")))
			if len(logEntry.Topics) > 0 {
				lines = append(lines, "Topics:")
				for j, topic := range logEntry.Topics {
					lines = append(lines, fmt.Sprintf("  %d. %s", j+1, topic))
				}
			}
		}
	}

	if len(t.Calls) > 0 {
		lines = append(lines, "", "Internal Calls:")
		for i, call := range t.Calls {
			lines = append(lines, "",
				fmt.Sprintf("Call #%d:", i+1),
				fmt.Sprintf("Type: %s", orDefault(call.Type, "Unknown")),
				fmt.Sprintf("From: %s", orDefault(call.From, "Unknown")),
				fmt.Sprintf("To: %s", orDefault(call.To, "Unknown")),
				fmt.Sprintf("Value: %s", oneinch.Scalar(call.Value, "0x0")))
		}
	}

	return fmt.Sprintf("Here is the transaction trace for TX %s in block %s on %s:\n\n%s\n\nPlease provide a clear explanation of this transaction trace, including what the transaction did and any notable events or internal calls.",
		txHash, res.BlockNumber, displayNetwork(res.Network), strings.Join(lines, "\n"))
}

func renderHistory(res models.Resolution, history *oneinch.HistoryResponse) string {
	wallet := models.ChecksumAddress(res.Subject)
	network := displayNetwork(res.Network)

	var lines []string
	if len(history.Items) == 0 {
		lines = append(lines, fmt.Sprintf("No transactions found for wallet %s on %s.", wallet, network))
	} else {
		lines = append(lines, fmt.Sprintf("Found %d transactions for %s on %s:", len(history.Items), wallet, network))

		shown := history.Items
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for i, item := range shown {
			details := item.Details
			lines = append(lines, "",
				fmt.Sprintf("Transaction #%d:", i+1),
				fmt.Sprintf("Hash: %s", orDefault(details.TxHash, "Unknown")),
				fmt.Sprintf("Type: %s", orDefault(details.Type, "Unknown")),
				fmt.Sprintf("Status: %s", orDefault(details.Status, "Unknown")),
				fmt.Sprintf("Block: %s", humanize.Comma(details.BlockNumber)),
				fmt.Sprintf("From: %s", orDefault(details.FromAddress, "Unknown")),
				fmt.Sprintf("To: %s", orDefault(details.ToAddress, "Unknown")))
			if len(details.TokenActions) > 0 {
				lines = append(lines, "Token Actions:")
				for _, action := range details.TokenActions {
					lines = append(lines,
						fmt.Sprintf("  Token: %s", orDefault(action.Address, "Unknown")),
						fmt.Sprintf("  Standard: %s", orDefault(action.Standard, "Unknown")),
						fmt.Sprintf("  Amount: %s", orDefault(action.Amount, "0")),
						fmt.Sprintf("  Direction: %s", orDefault(action.Direction, "Unknown")))
				}
			}
		}
		if len(history.Items) > 10 {
			lines = append(lines, "", fmt.Sprintf("... and %d more transactions (showing only the 10 most recent)", len(history.Items)-10))
		}
	}

	return fmt.Sprintf("Here is the transaction history for wallet %s on %s:\n\n%s\n\nPlease provide a clear summary of this wallet's transaction activity.",
		wallet, network, strings.Join(lines, "\n"))
}

// Directive builds the per-turn system message that forces the model to
// answer from the fetched data. The canonical block rides along as the
// fallback template.
func Directive(res models.Resolution, block string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CRITICAL INSTRUCTION: The user has asked about %s.\n", directiveSubject(res))
	b.WriteString("I have fetched the real blockchain data above. Your response MUST:\n")
	for i, rule := range directiveRules(res) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	b.WriteString("\nIf you're unsure how to format the response, use this template:\n")
	b.WriteString(block)
	b.WriteString("\n")

	return b.String()
}

func directiveSubject(res models.Resolution) string {
	network := displayNetwork(res.Network)
	switch res.Intent {
	case models.IntentGasPrice:
		return fmt.Sprintf("gas prices on %s", network)
	case models.IntentNftHoldings:
		return fmt.Sprintf("NFT holdings for %s on %s", models.ChecksumAddress(res.Subject), network)
	case models.IntentSpotPrice:
		return fmt.Sprintf("spot prices for %s in %s", network, resolvedCurrency(res))
	case models.IntentTokenValue:
		return fmt.Sprintf("the value of token %s on %s", models.ChecksumAddress(res.Subject), network)
	case models.IntentTokenDetails:
		return fmt.Sprintf("the details of token %s on %s", models.ChecksumAddress(res.Subject), network)
	case models.IntentTokenProfitLoss:
		return fmt.Sprintf("the profit/loss of token %s on %s over %s", models.ChecksumAddress(res.Subject), network, resolvedTimerange(res))
	case models.IntentTransactionTrace:
		return fmt.Sprintf("the transaction trace for TX %s in block %s on %s", res.Subject, res.BlockNumber, network)
	default:
		return fmt.Sprintf("the transaction history for wallet %s on %s", models.ChecksumAddress(res.Subject), network)
	}
}

func directiveRules(res models.Resolution) []string {
	switch res.Intent {
	case models.IntentGasPrice:
		return []string{
			"Include these EXACT gas price values",
			"DO NOT calculate, convert, or modify these values in any way",
			"DO NOT make up different values",
		}
	case models.IntentNftHoldings:
		return []string{
			"List all NFTs found in the wallet",
			"Include collection names and token IDs",
			"Mention the token types and standards",
			"DO NOT make up any information not present in the data",
		}
	case models.IntentSpotPrice:
		return []string{
			fmt.Sprintf("List all token prices in %s", resolvedCurrency(res)),
			"Include token symbols where known",
			"Format prices clearly and consistently",
			"DO NOT make up any information not present in the data",
		}
	case models.IntentTokenValue:
		return []string{
			"Include the token address",
			"Show the value breakdown by protocol",
			"Include the total value in USD",
			"DO NOT make up any information not present in the data",
		}
	case models.IntentTokenDetails:
		return []string{
			"Include the token name, symbol, and address",
			"Show the token amount, price, and total value",
			"Include ROI and profit/loss information if available",
			"DO NOT make up any information not present in the data",
		}
	case models.IntentTokenProfitLoss:
		return []string{
			"Include the token address",
			"Show the absolute profit/loss in USD",
			"Include the ROI as a percentage",
			"Mention the time range of the analysis",
			"DO NOT make up any information not present in the data",
		}
	case models.IntentTransactionTrace:
		return []string{
			"Include the transaction hash, from/to addresses, and value",
			"Explain the transaction status and gas usage",
			"Describe any logs or events emitted during the transaction",
			"Explain any internal calls made during the transaction",
			"DO NOT make up any information not present in the data",
		}
	default:
		return []string{
			"Include the wallet address",
			"Summarize the types of transactions (sends, approvals, etc.)",
			"Mention any notable token transfers or interactions",
			"Provide an overview of the wallet's activity pattern",
			"DO NOT make up any information not present in the data",
		}
	}
}

// displayNetwork renders a network alias for humans, defaulting to Ethereum
// and capitalizing the first letter the way users expect.
func displayNetwork(network string) string {
	if network == "" {
		network = models.DefaultNetwork
	}
	if len(network) == 1 {
		return strings.ToUpper(network)
	}
	return strings.ToUpper(network[:1]) + strings.ToLower(network[1:])
}

// gweiValue converts a wei string from the gas feed into gwei for display.
// Unparseable values pass through untouched.
func gweiValue(wei string) string {
	value, err := strconv.ParseFloat(wei, 64)
	if err != nil {
		return wei
	}
	return humanize.CommafWithDigits(value/1e9, 3)
}

func usd(value float64) string {
	return humanize.FormatFloat("#,###.##", value)
}

// signedUSD formats a profit figure with an explicit plus for gains.
func signedUSD(value float64) string {
	if value >= 0 {
		return "+$" + usd(value)
	}
	return "$" + usd(value)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func resolvedCurrency(res models.Resolution) string {
	if res.Currency != "" {
		return res.Currency
	}
	return models.DefaultCurrency
}

func resolvedTimerange(res models.Resolution) string {
	if res.Timerange != "" {
		return res.Timerange
	}
	return models.DefaultTimerange
}
