package models

import "strings"

// NetworkAlias pairs one user-facing network name with its chain ID. Several
// aliases may point at the same chain.
type NetworkAlias struct {
	Alias   string `json:"alias"`
	ChainID string `json:"chain_id"`
}

// networkAliases is the canonical alias table. Order matters: text scans and
// reverse lookups walk it top to bottom, so primary names come before
// shorthands.
var networkAliases = []NetworkAlias{
	{Alias: "ethereum", ChainID: "1"},
	{Alias: "eth", ChainID: "1"},
	{Alias: "mainnet", ChainID: "1"},
	{Alias: "binance", ChainID: "56"},
	{Alias: "bsc", ChainID: "56"},
	{Alias: "polygon", ChainID: "137"},
	{Alias: "matic", ChainID: "137"},
	{Alias: "avalanche", ChainID: "43114"},
	{Alias: "avax", ChainID: "43114"},
	{Alias: "arbitrum", ChainID: "42161"},
	{Alias: "optimism", ChainID: "10"},
	{Alias: "base", ChainID: "8453"},
	{Alias: "fantom", ChainID: "250"},
	{Alias: "ftm", ChainID: "250"},
	{Alias: "aurora", ChainID: "1313161554"},
}

var chainIDByAlias = func() map[string]string {
	m := make(map[string]string, len(networkAliases))
	for _, n := range networkAliases {
		m[n.Alias] = n.ChainID
	}
	return m
}()

const (
	// DefaultNetwork is assumed when a matched query names no network.
	DefaultNetwork = "ethereum"

	// DefaultChainID is the caller-side fallback when an alias cannot be
	// resolved. The directory itself never substitutes it.
	DefaultChainID = "1"
)

// NetworkAliases returns the alias table in its stable scan order. Callers
// must not modify the returned slice.
func NetworkAliases() []NetworkAlias {
	return networkAliases
}

// ChainIDForNetwork resolves a network alias to its chain ID. Lookups are
// case-insensitive; an unknown alias reports ok=false.
func ChainIDForNetwork(alias string) (string, bool) {
	id, ok := chainIDByAlias[strings.ToLower(alias)]
	return id, ok
}

// NetworkForChainID returns the display alias for a chain ID: the first
// alias in table order, so "1" yields "ethereum" rather than "eth".
func NetworkForChainID(chainID string) (string, bool) {
	for _, n := range networkAliases {
		if n.ChainID == chainID {
			return n.Alias, true
		}
	}
	return "", false
}

// Network groups a chain ID with its display name and accepted aliases,
// for listing endpoints.
type Network struct {
	ChainID string   `json:"chain_id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// SupportedNetworks returns one entry per chain in table order.
func SupportedNetworks() []Network {
	var networks []Network
	index := make(map[string]int)
	for _, n := range networkAliases {
		i, seen := index[n.ChainID]
		if !seen {
			index[n.ChainID] = len(networks)
			networks = append(networks, Network{ChainID: n.ChainID, Name: n.Alias})
			i = index[n.ChainID]
		}
		networks[i].Aliases = append(networks[i].Aliases, n.Alias)
	}
	return networks
}
