package model

import (
	"strings"
	"time"
)

// Token is one leg of a liquidity pool.
type Token struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address,omitempty"`
}

// Pool is a single liquidity-pool snapshot returned by the analytics API.
// It is produced fresh every poll cycle and never persisted.
type Pool struct {
	Address   string  `json:"address"`
	Name      string  `json:"name,omitempty"`
	ChainID   ChainID `json:"chainId"`
	Exchange  string  `json:"exchange"`
	Tokens    []Token `json:"tokens"`
	APR       Metric  `json:"apr"`
	EarnFee   Metric  `json:"earnFee"`
	Volume    Metric  `json:"volume"`
	TVL       Metric  `json:"tvl"`
	Liquidity Metric  `json:"liquidity"`
}

// Key returns the normalized identity of the pool.
func (p Pool) Key() string {
	return NormalizeKey(p.Address)
}

// Pair renders the token symbols as "A/B".
func (p Pool) Pair() string {
	symbols := make([]string, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		if t.Symbol != "" {
			symbols = append(symbols, t.Symbol)
		}
	}
	return strings.Join(symbols, "/")
}

// NotifyRecord is what is remembered about the last notification for a pool.
type NotifyRecord struct {
	NotifiedAt time.Time `json:"notifiedAt"`
	Volume     float64   `json:"volume"`
}

// Thresholds are the per-metric minimums a pool must reach to be reported.
type Thresholds struct {
	MinAPR     float64 `json:"min_apr"`
	MinEarnFee float64 `json:"min_earn_fee"`
	MinVolume  float64 `json:"min_volume"`
}

// NormalizeKey maps a pool address to its store key. Addresses are
// compared case-insensitively.
func NormalizeKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
