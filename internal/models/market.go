package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned when a provider answers with an empty or
// meaningless payload (Finnhub replies with all zeros for unknown symbols).
var ErrNoData = errors.New("no data")

// Quote is the polled price snapshot of a symbol.
// JSON tags follow the Finnhub /quote payload.
type Quote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	ChangePercent decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PrevClose     decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

// Validate rejects payloads that do not describe a traded instrument.
func (q Quote) Validate() error {
	if q.Current.IsZero() && q.PrevClose.IsZero() {
		return ErrNoData
	}
	if q.Current.IsNegative() || q.PrevClose.IsNegative() {
		return errors.New("negative price in quote")
	}
	return nil
}

// CompanyProfile follows the Finnhub /stock/profile2 payload.
type CompanyProfile struct {
	Country          string          `json:"country"`
	Currency         string          `json:"currency"`
	Exchange         string          `json:"exchange"`
	IPO              string          `json:"ipo"`
	MarketCap        decimal.Decimal `json:"marketCapitalization"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	ShareOutstanding decimal.Decimal `json:"shareOutstanding"`
	Ticker           string          `json:"ticker"`
	WebURL           string          `json:"weburl"`
	Logo             string          `json:"logo"`
	Industry         string          `json:"finnhubIndustry"`
}

// Validate fails with ErrNoData on the empty object returned for unknown symbols.
func (p CompanyProfile) Validate() error {
	if p.Ticker == "" && p.Name == "" {
		return ErrNoData
	}
	return nil
}

// MarketStatus follows the Finnhub /market/status payload.
type MarketStatus struct {
	Exchange  string  `json:"exchange"`
	Holiday   *string `json:"holiday"`
	IsOpen    bool    `json:"isOpen"`
	Session   string  `json:"session"`
	Timezone  string  `json:"timezone"`
	Timestamp int64   `json:"t"`
}

// SymbolMatch is one hit of a symbol search.
type SymbolMatch struct {
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}

// SymbolSearch follows the Finnhub /search payload.
type SymbolSearch struct {
	Count  int           `json:"count"`
	Result []SymbolMatch `json:"result"`
}

// NewsItem follows the Finnhub /news and /company-news payloads.
type NewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// CompanyNewsItem is a news item tagged with the symbol it was fetched for.
type CompanyNewsItem struct {
	NewsItem
	Symbol string `json:"symbol"`
}

// LiveTick is a single streamed trade price.
type LiveTick struct {
	Price decimal.Decimal
	Time  int64 // Unix milliseconds
}

// TradeData is one entry of a streamed trade frame.
type TradeData struct {
	Price  *decimal.Decimal `json:"p"`
	Symbol string           `json:"s,omitempty"`
	Time   decimal.Decimal  `json:"t"` // Unix milliseconds
	Volume decimal.Decimal  `json:"v"`
}

// TradeMessage is the streamed frame envelope ({"type":"trade","data":[...]}).
type TradeMessage struct {
	Type string      `json:"type"`
	Data []TradeData `json:"data"`
}

// StreamRequest is the subscribe/unsubscribe control frame.
type StreamRequest struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}
