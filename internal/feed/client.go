// Package feed maintains the websocket connection to the token event
// stream, with automatic reconnect and re-subscription.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/benhexie/sol-sniper/internal/domain"
)

const (
	methodSubscribeNewToken   = "subscribeNewToken"
	methodSubscribeTokenTrade = "subscribeTokenTrade"
)

// Config configures connection keepalive and reconnect behavior.
type Config struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff between attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the per-message read deadline.
	ReadTimeout time.Duration
	// WriteTimeout is the per-message write deadline.
	WriteTimeout time.Duration
	// OnReconnect, when set, runs after every successful reconnect.
	OnReconnect func()
}

// DefaultConfig returns the default feed configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    3 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

type wsRequest struct {
	Method string   `json:"method"`
	Keys   []string `json:"keys,omitempty"`
}

// Client streams token create and trade events over a single websocket
// connection. On reconnect it re-issues the new-token subscription and a
// trade subscription for every mint KeysFunc reports as still tracked.
type Client struct {
	endpoint string
	config   Config
	log      zerolog.Logger

	// KeysFunc supplies the mints whose trade stream must survive a
	// reconnect.
	keysFunc func() []string

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan domain.Event

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
	reconnects   atomic.Uint64
}

// NewClient connects to the endpoint, subscribes to new-token events and
// starts the reader and ping goroutines.
func NewClient(ctx context.Context, endpoint string, keysFunc func() []string, config *Config, log zerolog.Logger) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		keysFunc: keysFunc,
		log:      log.With().Str("component", "feed").Logger(),
		events:   make(chan domain.Event, 1024),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if err := c.writeJSON(wsRequest{Method: methodSubscribeNewToken}); err != nil {
		c.conn.Close()
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Events returns the stream of decoded feed events. The channel is
// closed by Close.
func (c *Client) Events() <-chan domain.Event {
	return c.events
}

// Reconnects reports how many times the connection was re-established.
func (c *Client) Reconnects() uint64 {
	return c.reconnects.Load()
}

// SubscribeTokenTrade subscribes the trade stream for the given mints.
func (c *Client) SubscribeTokenTrade(mints ...string) error {
	if len(mints) == 0 {
		return nil
	}
	if c.closed.Load() {
		return fmt.Errorf("client closed")
	}
	return c.writeJSON(wsRequest{Method: methodSubscribeTokenTrade, Keys: mints})
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.events)
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

func (c *Client) writeJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// readLoop reads messages and dispatches decoded events. On a read error
// it kicks off a single reconnect goroutine and waits for a fresh
// connection.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(c.config.ReconnectDelay)
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		c.handleMessage(message)
	}
}

// reconnect redials with exponential backoff until the connection is
// restored or the client is closed. A refused dial is retried like any
// other drop; the feed never stays down.
func (c *Client) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	c.log.Warn().Dur("delay", delay).Msg("feed disconnected, reconnecting")

	for {
		if c.closed.Load() {
			return
		}

		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			break
		}

		c.log.Warn().Err(err).Dur("delay", delay).Msg("reconnect failed")
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}

	c.reconnects.Add(1)
	if c.config.OnReconnect != nil {
		c.config.OnReconnect()
	}
	c.resubscribe()
	c.log.Info().Msg("feed reconnected")
}

// resubscribe restores the new-token stream and the trade stream for
// every mint still tracked.
func (c *Client) resubscribe() {
	if err := c.writeJSON(wsRequest{Method: methodSubscribeNewToken}); err != nil {
		c.log.Warn().Err(err).Msg("resubscribe new tokens failed")
	}
	if c.keysFunc == nil {
		return
	}
	if mints := c.keysFunc(); len(mints) > 0 {
		if err := c.SubscribeTokenTrade(mints...); err != nil {
			c.log.Warn().Err(err).Int("mints", len(mints)).Msg("resubscribe trades failed")
		}
	}
}

// handleMessage decodes a feed message. Messages without a txType, such
// as subscription acknowledgements, are ignored.
func (c *Client) handleMessage(message []byte) {
	var ev domain.Event
	if err := json.Unmarshal(message, &ev); err != nil {
		c.log.Debug().Err(err).Msg("undecodable feed message")
		return
	}
	if ev.TxType == "" || ev.Mint == "" {
		return
	}

	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in the read loop.
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}
