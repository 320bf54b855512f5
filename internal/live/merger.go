// Package live overlays streamed trade ticks onto the polled quote of the
// one symbol currently open on the dashboard.
package live

import (
	"encoding/json"

	"stock_pulse/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Display is the merged view of a symbol. Has* flags mark values that could
// not be derived from the data received so far.
type Display struct {
	Symbol           string
	Price            decimal.Decimal
	HasPrice         bool
	Change           decimal.Decimal
	HasChange        bool
	ChangePercent    decimal.Decimal
	HasChangePercent bool
	Live             bool
	TickTime         int64
}

// Merger holds the polled quote and the latest tick for one symbol.
// It performs no I/O and is not safe for concurrent use.
type Merger struct {
	symbol string
	quote  *models.Quote
	tick   *models.LiveTick
}

// Reset switches the merger to symbol and clears any pending tick.
// The quote is kept only if it belongs to the same symbol.
func (m *Merger) Reset(symbol string) {
	sym := models.NormalizeSymbol(symbol)
	if sym != m.symbol {
		m.quote = nil
	}
	m.symbol = sym
	m.tick = nil
}

// Symbol returns the symbol currently merged.
func (m *Merger) Symbol() string { return m.symbol }

// SetQuote replaces the polled quote. A nil quote clears it.
func (m *Merger) SetQuote(q *models.Quote) {
	if q == nil {
		m.quote = nil
		return
	}
	cp := *q
	m.quote = &cp
}

// ApplyTick records t as the latest streamed trade.
func (m *Merger) ApplyTick(t models.LiveTick) {
	m.tick = &t
}

// HandleMessage decodes a raw stream frame and applies its last entry.
// Frames that do not parse, are not trade frames or carry no entries are
// ignored and false is returned; the previous state is untouched. A last
// entry without a positive price or naming another symbol drops the frame.
func (m *Merger) HandleMessage(raw []byte) bool {
	var msg models.TradeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return false
	}
	if msg.Type != "trade" || len(msg.Data) == 0 {
		return false
	}

	d := msg.Data[len(msg.Data)-1]
	if d.Price == nil || !d.Price.IsPositive() {
		return false
	}
	if d.Symbol != "" && m.symbol != "" && models.NormalizeSymbol(d.Symbol) != m.symbol {
		return false
	}
	m.ApplyTick(models.LiveTick{Price: *d.Price, Time: d.Time.IntPart()})
	return true
}

// Live reports whether a tick arrived since the last Reset.
func (m *Merger) Live() bool { return m.tick != nil }

// View derives the display price and change.
//
// Price is the latest tick, else the quote's current price. Change is
// price - previous close when both exist, else the quote's own change.
// The percentage is computed against a nonzero previous close, else taken
// from the quote.
func (m *Merger) View() Display {
	d := Display{Symbol: m.symbol, Live: m.tick != nil}

	switch {
	case m.tick != nil:
		d.Price, d.HasPrice = m.tick.Price, true
		d.TickTime = m.tick.Time
	case m.quote != nil:
		d.Price, d.HasPrice = m.quote.Current, true
	}

	if m.quote == nil {
		return d
	}

	if d.HasPrice {
		d.Change = d.Price.Sub(m.quote.PrevClose)
	} else {
		d.Change = m.quote.Change
	}
	d.HasChange = true

	if !m.quote.PrevClose.IsZero() {
		d.ChangePercent = d.Change.Div(m.quote.PrevClose).Mul(hundred)
	} else {
		d.ChangePercent = m.quote.ChangePercent
	}
	d.HasChangePercent = true
	return d
}
