package feed

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventBuffer      = 256
	reconnectBackoff = time.Second
	maxBackoff       = 30 * time.Second
)

// subscribeMessage is sent once per connection to register interest in
// the monitored tables.
type subscribeMessage struct {
	Action string   `json:"action"`
	ID     string   `json:"id"`
	Tables []string `json:"tables"`
}

// Feed subscribes to the upstream change stream over WebSocket and
// delivers ChangeEvents in arrival order. Connection drops are
// reconnected with backoff; the event channel stays open until the
// context is cancelled.
type Feed struct {
	url    string
	apiKey string
	logger *zap.Logger

	mu        sync.RWMutex
	connected bool
}

// NewFeed creates a change feed subscriber for the given WebSocket URL.
func NewFeed(wsURL, apiKey string, logger *zap.Logger) *Feed {
	return &Feed{
		url:    wsURL,
		apiKey: apiKey,
		logger: logger.Named("changefeed"),
	}
}

// Connected reports whether the feed currently holds a live connection.
func (f *Feed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *Feed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

// Subscribe opens the stream and returns a channel of change events.
// Events are stamped with their arrival time. The channel is closed
// when ctx is cancelled.
func (f *Feed) Subscribe(ctx context.Context) <-chan ChangeEvent {
	events := make(chan ChangeEvent, eventBuffer)
	go f.run(ctx, events)
	return events
}

func (f *Feed) run(ctx context.Context, events chan<- ChangeEvent) {
	defer close(events)

	backoff := reconnectBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := f.dial(ctx)
		if err != nil {
			f.logger.Warn("change feed dial failed",
				zap.String("url", f.url),
				zap.Duration("retry_in", backoff),
				zap.Error(err))
			feedReconnectsTotal.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = reconnectBackoff
		f.setConnected(true)
		f.logger.Info("change feed connected", zap.String("url", f.url))

		err = f.readLoop(ctx, conn, events)
		f.setConnected(false)
		conn.Close(websocket.StatusNormalClosure, "")
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn("change feed disconnected", zap.Error(err))
		feedReconnectsTotal.Inc()
	}
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, f.url, nil)
	if err != nil {
		return nil, err
	}

	sub := subscribeMessage{
		Action: "subscribe",
		ID:     uuid.NewString(),
		Tables: []string{string(TableEquipment), string(TableParameters)},
	}
	if err := wsjson.Write(dialCtx, conn, sub); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, err
	}
	return conn, nil
}

// readLoop reads events until the connection fails or ctx is cancelled.
// A malformed frame is logged and skipped; the stream itself stays up.
func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn, events chan<- ChangeEvent) error {
	for {
		var ev ChangeEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return err
		}
		if ev.Table != TableEquipment && ev.Table != TableParameters {
			continue
		}
		ev.ReceivedAt = time.Now()

		// Block rather than drop when the consumer is behind, since
		// dropping would reorder the stream.
		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
