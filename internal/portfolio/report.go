package portfolio

import (
	"stock_pulse/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Valuation is the mark-to-market view of a single position.
type Valuation struct {
	Unrealized decimal.Decimal
	Total      decimal.Decimal // Unrealized + RealizedPnL
	Percent    decimal.Decimal // Total over cost basis, in percent
	HasPercent bool            // false when the cost basis is zero
}

// Evaluate marks p at the live price.
func Evaluate(p models.Position, price decimal.Decimal) Valuation {
	unrealized := price.Sub(p.AveragePrice).Mul(p.Quantity)
	v := Valuation{
		Unrealized: unrealized,
		Total:      unrealized.Add(p.RealizedPnL),
	}
	if cost := p.CostBasis(); !cost.IsZero() {
		v.Percent = v.Total.Div(cost).Mul(hundred)
		v.HasPercent = true
	}
	return v
}

// Holding is one row of the portfolio report.
type Holding struct {
	models.Position
	Cost        decimal.Decimal
	HasPrice    bool
	Price       decimal.Decimal
	MarketValue decimal.Decimal
	Valuation   Valuation
}

// Totals aggregates a report. Unrealized and MarketValue only include
// holdings with a known price.
type Totals struct {
	Cost           decimal.Decimal
	MarketValue    decimal.Decimal
	Unrealized     decimal.Decimal
	Realized       decimal.Decimal
	Total          decimal.Decimal
	Percent        decimal.Decimal
	HasPercent     bool
	HasMarketValue bool
}

// Report is the portfolio page: one row per holding plus totals.
type Report struct {
	Holdings []Holding
	Totals   Totals
}

// PriceLookup returns the current price of a symbol, if known.
type PriceLookup func(symbol string) (decimal.Decimal, bool)

// BuildReport values every position of the ledger with prices.
func BuildReport(l *Ledger, prices PriceLookup) Report {
	var r Report
	for _, p := range l.Positions() {
		h := Holding{Position: p, Cost: p.CostBasis()}
		r.Totals.Cost = r.Totals.Cost.Add(h.Cost)
		r.Totals.Realized = r.Totals.Realized.Add(p.RealizedPnL)

		if price, ok := prices(p.Symbol); ok {
			h.HasPrice = true
			h.Price = price
			h.MarketValue = price.Mul(p.Quantity)
			h.Valuation = Evaluate(p, price)

			r.Totals.MarketValue = r.Totals.MarketValue.Add(h.MarketValue)
			r.Totals.Unrealized = r.Totals.Unrealized.Add(h.MarketValue.Sub(h.Cost))
			r.Totals.HasMarketValue = true
		}
		r.Holdings = append(r.Holdings, h)
	}

	r.Totals.Total = r.Totals.Realized.Add(r.Totals.Unrealized)
	if r.Totals.Cost.IsPositive() {
		r.Totals.Percent = r.Totals.Total.Div(r.Totals.Cost).Mul(hundred)
		r.Totals.HasPercent = true
	}
	return r
}
