// Package portfolio implements the simulated buy/sell ledger.
//
// The Ledger is a pure state machine: it performs no I/O and never returns
// errors. Every mutation either applies fully and reports true, or leaves
// the ledger untouched and reports false.
package portfolio

import (
	"sort"
	"time"

	"stock_pulse/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTrades caps the trade log. Older entries are evicted first.
const MaxTrades = 200

// Ledger owns the Symbol -> Position mapping and the trade log.
type Ledger struct {
	positions map[string]models.Position
	trades    []models.Trade // newest first

	now   func() time.Time
	newID func() string
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to timestamp trades.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the trade ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		positions: make(map[string]models.Position),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FromState rebuilds a ledger from a persisted record.
// Entries violating the position invariants (non-positive quantity or
// average price) are skipped.
func FromState(positions map[string]models.Position, trades []models.Trade, opts ...Option) *Ledger {
	l := New(opts...)
	for key, p := range positions {
		sym := models.NormalizeSymbol(key)
		if sym == "" || !p.Quantity.IsPositive() || !p.AveragePrice.IsPositive() {
			continue
		}
		p.Symbol = sym
		l.positions[sym] = p
	}
	l.trades = append(l.trades, trades...)
	if len(l.trades) > MaxTrades {
		l.trades = l.trades[:MaxTrades]
	}
	return l
}

// Buy records a purchase of quantity shares at price.
//
// The new average price is the quantity-weighted mean of the previous
// cost basis and this purchase. RealizedPnL is carried over unchanged.
func (l *Ledger) Buy(symbol string, price, quantity decimal.Decimal) bool {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" || !price.IsPositive() || !quantity.IsPositive() {
		return false
	}

	current, held := l.positions[sym]
	next := models.Position{
		Symbol:       sym,
		Quantity:     quantity,
		AveragePrice: price,
		RealizedPnL:  decimal.Zero,
	}
	if held {
		newQty := current.Quantity.Add(quantity)
		next.Quantity = newQty
		next.AveragePrice = current.CostBasis().Add(price.Mul(quantity)).Div(newQty)
		next.RealizedPnL = current.RealizedPnL
	}

	l.positions[sym] = next
	l.record(models.SideBuy, sym, price, quantity)
	return true
}

// Sell records a sale of quantity shares at price.
//
// It fails when no position exists or when quantity exceeds the holding.
// A sale that empties the position deletes it, and its RealizedPnL goes
// with it.
func (l *Ledger) Sell(symbol string, price, quantity decimal.Decimal) bool {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" || !price.IsPositive() || !quantity.IsPositive() {
		return false
	}

	current, held := l.positions[sym]
	if !held || current.Quantity.LessThan(quantity) {
		return false
	}

	remaining := current.Quantity.Sub(quantity)
	if remaining.IsZero() {
		delete(l.positions, sym)
	} else {
		delta := price.Sub(current.AveragePrice).Mul(quantity)
		l.positions[sym] = models.Position{
			Symbol:       sym,
			Quantity:     remaining,
			AveragePrice: current.AveragePrice,
			RealizedPnL:  current.RealizedPnL.Add(delta),
		}
	}

	l.record(models.SideSell, sym, price, quantity)
	return true
}

func (l *Ledger) record(side models.Side, sym string, price, quantity decimal.Decimal) {
	t := models.Trade{
		ID:        l.newID(),
		Symbol:    sym,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: l.now().UnixMilli(),
	}
	trades := make([]models.Trade, 0, min(len(l.trades)+1, MaxTrades))
	trades = append(trades, t)
	trades = append(trades, l.trades...)
	if len(trades) > MaxTrades {
		trades = trades[:MaxTrades]
	}
	l.trades = trades
}

// Position returns the holding for symbol, if any.
func (l *Ledger) Position(symbol string) (models.Position, bool) {
	p, ok := l.positions[models.NormalizeSymbol(symbol)]
	return p, ok
}

// Positions returns a copy of all holdings sorted by symbol.
func (l *Ledger) Positions() []models.Position {
	out := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols returns the held symbols sorted.
func (l *Ledger) Symbols() []string {
	out := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Trades returns a copy of the trade log, newest first.
func (l *Ledger) Trades() []models.Trade {
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Snapshot exports the ledger in its persisted shape.
func (l *Ledger) Snapshot() (map[string]models.Position, []models.Trade) {
	positions := make(map[string]models.Position, len(l.positions))
	for k, v := range l.positions {
		positions[k] = v
	}
	return positions, l.Trades()
}
