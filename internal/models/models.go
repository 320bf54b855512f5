package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeSymbol returns the canonical form of a ticker.
// Every boundary (watchlist, buy, sell, lookups) goes through here so that
// "aapl " and "AAPL" collapse to the same key.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Side is the direction of a simulated trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Position represents the current holding of a single symbol.
//
// A Position only exists while Quantity > 0. AveragePrice is the
// quantity-weighted cost basis and is never touched by sells.
type Position struct {
	Symbol       string          `json:"symbol"`       // Canonical ticker (e.g., "AAPL")
	Quantity     decimal.Decimal `json:"quantity"`     // Shares held, always > 0
	AveragePrice decimal.Decimal `json:"averagePrice"` // Weighted-average cost per share
	RealizedPnL  decimal.Decimal `json:"realizedPnL"`  // Locked-in P&L from partial sells
}

// CostBasis is AveragePrice * Quantity.
func (p Position) CostBasis() decimal.Decimal {
	return p.AveragePrice.Mul(p.Quantity)
}

// Trade is an immutable entry of the trade log.
type Trade struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}

// PortfolioState is the persisted record holding the watchlist, the
// positions and the trade log. It matches the layout of the JSON state file.
type PortfolioState struct {
	Version   string              `json:"version"`   // Schema version for migrations
	Watchlist []string            `json:"watchlist"` // Ordered, deduplicated symbols
	Positions map[string]Position `json:"positions"` // Keyed by canonical symbol
	Trades    []Trade             `json:"trades"`    // Newest first, capped
}

// Settings is the persisted user settings record.
type Settings struct {
	FinnhubAPIKey string `json:"finnhubApiKey"`
}
