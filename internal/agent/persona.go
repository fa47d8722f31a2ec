package agent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes the persona the agent speaks as, plus its model defaults.
// Profiles are loaded from YAML so operators can swap personas without a rebuild.
type Profile struct {
	Name        string   `yaml:"name"`
	Bio         []string `yaml:"bio"`
	Traits      []string `yaml:"traits"`
	Adjectives  []string `yaml:"adjectives"`
	Model       string   `yaml:"model,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
}

// LoadProfile reads a persona profile from a YAML file
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if profile.Name == "" {
		return nil, fmt.Errorf("profile is missing a name")
	}

	return &profile, nil
}

// DefaultProfile returns the built-in persona used when no profile file is given
func DefaultProfile() *Profile {
	return &Profile{
		Name: "ChainChat",
		Bio: []string{
			"A conversational guide to on-chain data.",
			"Answers questions about gas, tokens, NFTs and transactions using live market data.",
		},
		Traits:     []string{"precise", "curious", "helpful"},
		Adjectives: []string{"concise", "factual"},
	}
}

// SystemPrompt composes the full system message for a conversation: the
// personality directive, the persona description, and the capability list
// the model needs so it does not refuse data questions.
func (p *Profile) SystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s. You must always stay in character and respond exactly as %s would.\n", p.Name, p.Name)
	b.WriteString("Never break character or refer to yourself as 'Assistant' or any other name.\n")
	fmt.Fprintf(&b, "Your name is %s and you should sign your responses as %s if appropriate.\n", p.Name, p.Name)

	if len(p.Bio) > 0 {
		b.WriteString("\n")
		for _, line := range p.Bio {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if len(p.Traits) > 0 {
		b.WriteString("\nYour key traits are:\n")
		for _, trait := range p.Traits {
			fmt.Fprintf(&b, "- %s\n", trait)
		}
	}
	if len(p.Adjectives) > 0 {
		fmt.Fprintf(&b, "\nYour style is best described as: %s.\n", strings.Join(p.Adjectives, ", "))
	}

	b.WriteString("\n")
	b.WriteString(capabilityDirective)

	return b.String()
}

// capabilityDirective tells the model which lookups happen on its behalf, so
// it leans on the injected data instead of refusing or hallucinating.
const capabilityDirective = `You have access to special tools that can provide real-time information. When a user asks about:
1. Gas prices or transaction fees on blockchain networks - I will fetch the current gas prices for you.
2. NFT holdings for a specific wallet address - I will fetch the NFT collection for you.
3. Spot prices of whitelisted tokens in various currencies and blockchains - I will fetch the current prices for you.
   (You can specify currencies like USD, INR, EUR and blockchains like Ethereum, Avalanche, Binance, Polygon)
4. Token value by address - I will fetch the current value of a specific token by its contract address.
   (You need to provide the token address and optionally specify the blockchain)
5. Token details by address - I will fetch detailed information about a specific token by its contract address.
   (You need to provide the token address and optionally specify the blockchain)
6. Token profit/loss by address - I will fetch profit and loss information for a specific token by its contract address.
   (You need to provide the token address and optionally specify the blockchain and time range)
7. Transaction trace - I will fetch detailed trace information for a specific transaction.
   (You need to provide the transaction hash and block number)
8. Transaction history - I will fetch the transaction history for a specific wallet address.
   (You need to provide the wallet address and optionally specify the blockchain)

Only use these tools when directly relevant to the user's query.`
