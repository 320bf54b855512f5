package market

import "context"

// FrameHandler receives raw inbound frames of a live trade stream.
// Frames are JSON trade envelopes ({"type":"trade","data":[{"p":..,"t":..}]});
// decoding and validation belong to the consumer.
type FrameHandler func(frame []byte)

// Subscription is one open live stream for a single symbol.
type Subscription interface {
	// Close sends a best-effort unsubscribe, then closes the transport.
	// Errors from an already dropped connection are swallowed.
	Close() error
}

// Feed opens live trade streams.
type Feed interface {
	Subscribe(ctx context.Context, symbol string, handler FrameHandler) (Subscription, error)
}
