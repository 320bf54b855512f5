package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"stock_pulse/internal/market"
	"stock_pulse/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"
	"github.com/shopspring/decimal"
)

// Streamer implements market.Feed using Alpaca's websocket API.
// Trades are re-encoded as trade envelopes so consumers see one frame format
// regardless of the feed.
type Streamer struct {
	feed marketdata.Feed
}

// Ensure Streamer implements the interface
var _ market.Feed = (*Streamer)(nil)

// NewStreamer creates a feed on the IEX stream (free/paper accounts).
func NewStreamer() *Streamer {
	return &Streamer{feed: marketdata.IEX}
}

// Subscribe connects a dedicated stocks client for symbol.
func (s *Streamer) Subscribe(ctx context.Context, symbol string, handler market.FrameHandler) (market.Subscription, error) {
	sym := models.NormalizeSymbol(symbol)

	client := stream.NewStocksClient(
		s.feed,
		stream.WithCredentials(os.Getenv("APCA_API_KEY_ID"), os.Getenv("APCA_API_SECRET_KEY")),
		stream.WithReconnectSettings(10, 500*time.Millisecond),
		stream.WithTrades(func(t stream.Trade) {
			if frame, err := encodeTrade(t); err == nil {
				handler(frame)
			}
		}, sym),
	)

	connCtx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- client.Connect(connCtx) }()

	select {
	case err := <-errc:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("connect alpaca stream: %w", err)
		}
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	log.Printf("🔌 Alpaca stream opened for %s", sym)
	return &subscription{client: client, symbol: sym, cancel: cancel}, nil
}

func encodeTrade(t stream.Trade) ([]byte, error) {
	price := decimal.NewFromFloat(t.Price)
	return json.Marshal(models.TradeMessage{
		Type: "trade",
		Data: []models.TradeData{{
			Price:  &price,
			Symbol: t.Symbol,
			Time:   decimal.NewFromInt(t.Timestamp.UnixMilli()),
			Volume: decimal.NewFromInt(int64(t.Size)),
		}},
	})
}

type subscription struct {
	client *stream.StocksClient
	symbol string
	cancel context.CancelFunc
	once   sync.Once
}

// Close unsubscribes (best effort) and terminates the client.
func (s *subscription) Close() error {
	s.once.Do(func() {
		_ = s.client.UnsubscribeFromTrades(s.symbol)
		s.cancel()
		<-s.client.Terminated()
		log.Printf("Alpaca stream closed for %s", s.symbol)
	})
	return nil
}
