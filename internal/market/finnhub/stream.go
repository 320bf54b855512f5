package finnhub

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"stock_pulse/internal/logger"
	"stock_pulse/internal/market"
	"stock_pulse/internal/models"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	readLimit    = 1 << 20
	closeTimeout = 2 * time.Second
)

// Streamer opens Finnhub trade streams, one websocket per subscription.
type Streamer struct {
	url   string
	token market.TokenSource
}

// Ensure Streamer implements the interface
var _ market.Feed = (*Streamer)(nil)

// NewStreamer creates a live trade feed against streamURL.
func NewStreamer(streamURL string, token market.TokenSource) *Streamer {
	if streamURL == "" {
		streamURL = DefaultStreamURL
	}
	if token == nil {
		token = market.StaticToken("")
	}
	return &Streamer{url: streamURL, token: token}
}

func (s *Streamer) endpoint() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	q := u.Query()
	q.Set("token", s.token())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe dials the stream, subscribes to symbol and pumps every inbound
// frame to handler from a background goroutine until the subscription is
// closed or the connection drops.
func (s *Streamer) Subscribe(ctx context.Context, symbol string, handler market.FrameHandler) (market.Subscription, error) {
	sym := models.NormalizeSymbol(symbol)
	endpoint, err := s.endpoint()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	conn.SetReadLimit(readLimit)

	if err := wsjson.Write(ctx, conn, models.StreamRequest{Type: "subscribe", Symbol: sym}); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("subscribe %s: %w", sym, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		conn:   conn,
		symbol: sym,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.readLoop(readCtx, handler)

	log.Printf("🔌 Live stream opened for %s", sym)
	return sub, nil
}

type subscription struct {
	conn   *websocket.Conn
	symbol string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) readLoop(ctx context.Context, handler market.FrameHandler) {
	defer close(s.done)
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				log.Printf("WARN: live stream for %s dropped: %v", s.symbol, err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		logger.Debugf("stream %s frame: %s", s.symbol, data)
		handler(data)
	}
}

// Close unsubscribes (best effort) and closes the socket. Safe to call twice.
func (s *subscription) Close() error {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		// The connection may already be gone; nothing to do about it.
		_ = wsjson.Write(ctx, s.conn, models.StreamRequest{Type: "unsubscribe", Symbol: s.symbol})
		_ = s.conn.Close(websocket.StatusNormalClosure, "")

		s.cancel()
		<-s.done
		log.Printf("Live stream closed for %s", s.symbol)
	})
	return nil
}
