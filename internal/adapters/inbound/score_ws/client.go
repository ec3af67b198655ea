package score_ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vpinfe/score-tracker/internal/events"
	"github.com/vpinfe/score-tracker/internal/telemetry"
)

// reconnectWait is the fixed interval between reconnection attempts.
// Reconnection is unconditional and infinite while running.
const reconnectWait = 10 * time.Second

// Client maintains the streaming connection to the local score server,
// decodes each message, and publishes the resulting events onto the bus.
// Each successful connection records an epoch timestamp; the tracker uses
// it to discard buffered events from before the connection existed.
type Client struct {
	addr  string // host:port of the score server
	bus   *events.Bus
	store *Store // raw message archive, may be nil

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(addr string, bus *events.Bus, store *Store) *Client {
	return &Client{
		addr:  addr,
		bus:   bus,
		store: store,
	}
}

// ConnectWithRetry connects to the score server and reconnects on failure
// with a fixed 10 second wait. Blocks until ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.connect(ctx)
		if ctx.Err() != nil {
			return
		}

		telemetry.Metrics.WSReconnects.Inc()
		if err != nil {
			telemetry.Warnf("score_ws: connection lost: %v — reconnecting in %s", err, reconnectWait)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectWait):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	url := fmt.Sprintf("ws://%s", c.addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer conn.Close()

	epoch := time.Now()
	telemetry.Infof("score_ws: connected to %s (epoch %s)", url, epoch.Format(time.RFC3339))
	c.bus.Publish(events.Event{
		Type:      events.EventConnStatus,
		Timestamp: epoch,
		Payload:   events.ConnStatusEvent{Connected: true, Epoch: epoch},
	})
	defer c.bus.Publish(events.Event{
		Type:    events.EventConnStatus,
		Payload: events.ConnStatusEvent{Connected: false},
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		telemetry.Metrics.WSMessagesReceived.Inc()

		var msg WireMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// malformed messages are dropped per-message, no user visibility
			telemetry.Metrics.WSParseErrors.Inc()
			telemetry.Debugf("score_ws: unmarshal: %v", err)
			continue
		}

		c.store.Insert(msg.Type, raw)

		evt, ok := ParseWire(&msg)
		if !ok {
			telemetry.Debugf("score_ws: unknown message type %q", msg.Type)
			continue
		}
		c.bus.Publish(evt)
	}
}

// Close closes the active connection so the read loop returns. The retry
// loop exits on context cancellation, not on Close.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
