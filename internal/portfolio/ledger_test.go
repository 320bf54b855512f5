package portfolio

import (
	"fmt"
	"testing"
	"time"

	"stock_pulse/internal/models"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestLedger() *Ledger {
	n := 0
	return New(
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("t%d", n)
		}),
	)
}

func TestBuySellScenario(t *testing.T) {
	l := newTestLedger()

	// 1. Open
	if !l.Buy("AAPL", d("100"), d("10")) {
		t.Fatal("Expected first buy to succeed")
	}
	p, ok := l.Position("AAPL")
	if !ok {
		t.Fatal("Expected AAPL position")
	}
	if !p.Quantity.Equal(d("10")) || !p.AveragePrice.Equal(d("100")) {
		t.Errorf("Expected {10 @ 100}, got {%s @ %s}", p.Quantity, p.AveragePrice)
	}

	// 2. Average up
	l.Buy("AAPL", d("120"), d("10"))
	p, _ = l.Position("AAPL")
	if !p.Quantity.Equal(d("20")) || !p.AveragePrice.Equal(d("110")) {
		t.Errorf("Expected {20 @ 110}, got {%s @ %s}", p.Quantity, p.AveragePrice)
	}

	// 3. Partial exit
	if !l.Sell("AAPL", d("130"), d("5")) {
		t.Fatal("Expected partial sell to succeed")
	}
	p, _ = l.Position("AAPL")
	if !p.Quantity.Equal(d("15")) {
		t.Errorf("Expected qty 15, got %s", p.Quantity)
	}
	if !p.AveragePrice.Equal(d("110")) {
		t.Errorf("Expected avg 110 after sell, got %s", p.AveragePrice)
	}
	if !p.RealizedPnL.Equal(d("100")) {
		t.Errorf("Expected realized 100, got %s", p.RealizedPnL)
	}

	trades := l.Trades()
	if len(trades) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(trades))
	}
	if trades[0].Side != models.SideSell || trades[0].ID != "t3" {
		t.Errorf("Expected newest trade first, got %+v", trades[0])
	}
	if trades[0].Timestamp != 1700000000000 {
		t.Errorf("Unexpected timestamp %d", trades[0].Timestamp)
	}
}

func TestBuyAverageIsWeightedMean(t *testing.T) {
	l := newTestLedger()
	buys := []struct{ price, qty string }{
		{"10", "1"}, {"20", "2"}, {"33", "3"}, {"7.5", "4"},
	}

	cost, qty := decimal.Zero, decimal.Zero
	for _, b := range buys {
		l.Buy("msft", d(b.price), d(b.qty))
		cost = cost.Add(d(b.price).Mul(d(b.qty)))
		qty = qty.Add(d(b.qty))

		// Interleaved sells must not move the average.
		before, _ := l.Position("MSFT")
		l.Sell("MSFT", d("1000"), d("0.5"))
		after, _ := l.Position("MSFT")
		if !before.AveragePrice.Equal(after.AveragePrice) {
			t.Errorf("Sell changed average: %s -> %s", before.AveragePrice, after.AveragePrice)
		}
		l.Buy("MSFT", after.AveragePrice, d("0.5"))
	}

	p, _ := l.Position("MSFT")
	want := cost.Div(qty)
	if !p.AveragePrice.Round(8).Equal(want.Round(8)) {
		t.Errorf("Expected average %s, got %s", want.Round(8), p.AveragePrice.Round(8))
	}
	if !p.Quantity.Equal(qty) {
		t.Errorf("Expected quantity %s, got %s", qty, p.Quantity)
	}
}

func TestBuyRejectsInvalidInput(t *testing.T) {
	l := newTestLedger()
	cases := []struct {
		name       string
		sym        string
		price, qty string
	}{
		{"empty symbol", "   ", "10", "1"},
		{"zero price", "AAPL", "0", "1"},
		{"negative price", "AAPL", "-1", "1"},
		{"zero quantity", "AAPL", "10", "0"},
		{"negative quantity", "AAPL", "10", "-2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if l.Buy(tc.sym, d(tc.price), d(tc.qty)) {
				t.Error("Expected buy to fail")
			}
		})
	}
	if len(l.Positions()) != 0 || len(l.Trades()) != 0 {
		t.Error("Rejected buys must not mutate the ledger")
	}
}

func TestSellFailsWithoutHolding(t *testing.T) {
	l := newTestLedger()

	if l.Sell("AAPL", d("100"), d("5")) {
		t.Error("Expected sell without position to fail")
	}
	if len(l.Trades()) != 0 {
		t.Errorf("Expected no trade appended, got %d", len(l.Trades()))
	}

	l.Buy("AAPL", d("100"), d("3"))
	if l.Sell("AAPL", d("100"), d("5")) {
		t.Error("Expected oversell to fail")
	}
	p, _ := l.Position("AAPL")
	if !p.Quantity.Equal(d("3")) || !p.RealizedPnL.IsZero() {
		t.Errorf("Oversell mutated position: %+v", p)
	}
	if len(l.Trades()) != 1 {
		t.Errorf("Expected only the buy trade, got %d", len(l.Trades()))
	}
	if l.Sell("AAPL", d("0"), d("1")) {
		t.Error("Expected zero-price sell to fail")
	}
}

func TestSellFullExitRemovesPosition(t *testing.T) {
	l := newTestLedger()
	l.Buy("AAPL", d("100"), d("10"))
	l.Sell("AAPL", d("150"), d("4"))

	if !l.Sell(" aapl", d("90"), d("6")) {
		t.Fatal("Expected full exit to succeed")
	}
	if _, ok := l.Position("AAPL"); ok {
		t.Error("Expected position to be removed after full exit")
	}

	// Known quirk: realized P&L of a closed position is discarded with it,
	// so re-entering starts from zero.
	l.Buy("AAPL", d("50"), d("1"))
	p, _ := l.Position("AAPL")
	if !p.RealizedPnL.IsZero() {
		t.Errorf("Expected realized P&L to restart at 0, got %s", p.RealizedPnL)
	}
	if !p.AveragePrice.Equal(d("50")) {
		t.Errorf("Expected fresh average 50, got %s", p.AveragePrice)
	}
}

func TestTradeLogCap(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < MaxTrades+25; i++ {
		l.Buy("AAPL", d("1"), d("1"))
	}

	trades := l.Trades()
	if len(trades) != MaxTrades {
		t.Fatalf("Expected %d trades, got %d", MaxTrades, len(trades))
	}
	if trades[0].ID != fmt.Sprintf("t%d", MaxTrades+25) {
		t.Errorf("Expected newest trade first, got %s", trades[0].ID)
	}
	if trades[len(trades)-1].ID != "t26" {
		t.Errorf("Expected oldest kept trade t26, got %s", trades[len(trades)-1].ID)
	}
}

func TestSymbolNormalization(t *testing.T) {
	l := newTestLedger()
	l.Buy("aapl ", d("10"), d("1"))
	l.Buy(" AAPL", d("20"), d("1"))

	if len(l.Positions()) != 1 {
		t.Fatalf("Expected one position, got %d", len(l.Positions()))
	}
	p, _ := l.Position("Aapl")
	if p.Symbol != "AAPL" || !p.AveragePrice.Equal(d("15")) {
		t.Errorf("Unexpected position %+v", p)
	}
	if l.Trades()[0].Symbol != "AAPL" {
		t.Errorf("Expected normalized trade symbol, got %q", l.Trades()[0].Symbol)
	}
}

func TestFromStateSkipsInvalidPositions(t *testing.T) {
	positions := map[string]models.Position{
		"aapl": {Quantity: d("2"), AveragePrice: d("10")},
		"ZERO": {Quantity: d("0"), AveragePrice: d("10")},
		"FREE": {Quantity: d("1"), AveragePrice: d("0")},
	}
	l := FromState(positions, nil)

	syms := l.Symbols()
	if len(syms) != 1 || syms[0] != "AAPL" {
		t.Errorf("Expected [AAPL], got %v", syms)
	}
	p, _ := l.Position("AAPL")
	if p.Symbol != "AAPL" {
		t.Errorf("Expected symbol backfilled, got %q", p.Symbol)
	}
}
