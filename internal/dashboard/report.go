package dashboard

import (
	"context"
	"fmt"
	"log"
	"strings"

	"stock_pulse/internal/models"
	"stock_pulse/internal/portfolio"

	"github.com/shopspring/decimal"
)

func evaluate(p models.Position, price decimal.Decimal) string {
	v := portfolio.Evaluate(p, price)
	if !v.HasPercent {
		return fmt.Sprintf("%s %s", tone(v.Total), signedMoney(v.Total))
	}
	return fmt.Sprintf("%s %s (%s)", tone(v.Total), signedMoney(v.Total), signedPercent(v.Percent))
}

// Report values the ledger with the freshest prices available.
func (d *Dashboard) Report(ctx context.Context) portfolio.Report {
	d.mu.RLock()
	symbols := d.ledger.Symbols()
	d.mu.RUnlock()

	if len(symbols) > 0 {
		if _, err := d.quotes.Refresh(ctx, symbols); err != nil {
			log.Printf("Portfolio refresh incomplete: %v", err)
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return portfolio.BuildReport(d.ledger, d.priceOf)
}

func (d *Dashboard) handlePortfolioCommand(ctx context.Context) string {
	r := d.Report(ctx)
	if len(r.Holdings) == 0 {
		return "📭 No open positions. Use /buy <ticker> <qty> to start."
	}

	var sb strings.Builder
	sb.WriteString("💼 *PORTFOLIO*\n\n")
	for _, h := range r.Holdings {
		sb.WriteString(fmt.Sprintf("*%s* %s @ %s\n", h.Symbol, qty(h.Quantity), money(h.AveragePrice)))
		if !h.HasPrice {
			sb.WriteString(fmt.Sprintf("  Price: -- | Cost: %s\n", money(h.Cost)))
		} else {
			sb.WriteString(fmt.Sprintf("  Price: %s | Value: %s\n", money(h.Price), money(h.MarketValue)))
			sb.WriteString(fmt.Sprintf("  Unrealized: %s\n", signedMoney(h.Valuation.Unrealized)))
			sb.WriteString(fmt.Sprintf("  Total P&L: %s\n", evaluate(h.Position, h.Price)))
		}
		if !h.RealizedPnL.IsZero() {
			sb.WriteString(fmt.Sprintf("  Realized: %s\n", signedMoney(h.RealizedPnL)))
		}
	}

	t := r.Totals
	sb.WriteString("\n📊 *TOTALS*\n")
	sb.WriteString(fmt.Sprintf("Cost: %s\n", money(t.Cost)))
	if t.HasMarketValue {
		sb.WriteString(fmt.Sprintf("Value: %s\n", money(t.MarketValue)))
	}
	sb.WriteString(fmt.Sprintf("Unrealized: %s | Realized: %s\n", signedMoney(t.Unrealized), signedMoney(t.Realized)))
	total := signedMoney(t.Total)
	if t.HasPercent {
		total += fmt.Sprintf(" (%s)", signedPercent(t.Percent))
	}
	sb.WriteString(fmt.Sprintf("Total P&L: %s %s", tone(t.Total), total))
	return sb.String()
}
