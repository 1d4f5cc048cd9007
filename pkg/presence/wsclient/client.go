// Package wsclient implements presence.Backend against the realtime hub's
// websocket endpoint.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

var (
	// ErrConnectionLost is returned for a request whose connection dropped
	// before the hub acknowledged it.
	ErrConnectionLost = errors.New("wsclient: connection lost before ack")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("wsclient: client closed")

	errSendBufferFull = errors.New("wsclient: send buffer full")
)

// TokenSource returns the bearer token presented when dialling.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// Config configures a Client.
type Config struct {
	// URL is the ws:// or wss:// address of the realtime endpoint.
	URL string

	Token  TokenSource
	Logger *slog.Logger
	Dialer *websocket.Dialer

	// MinBackoff and MaxBackoff bound the reconnect delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Client is a reconnecting presence.Backend. Connection state reports true
// once the hub has greeted a connection and false when it drops.
type Client struct {
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	serial *presence.Serial
	state  presence.Fanout[bool]
	coll   presence.Fanout[presence.CollectionEvent]

	// Owned by the serial goroutine.
	records map[string]presence.Record
	primed  bool

	rid atomic.Uint64

	mu        sync.Mutex
	conn      *websocket.Conn
	out       chan []byte
	connID    string
	connected bool
	pending   map[uint64]chan wire.ServerFrame
	collSubs  int
}

var _ presence.Backend = (*Client)(nil)

// New starts a client that dials cfg.URL in the background until Close.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 250 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "wsclient"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		serial:  presence.NewSerial(),
		records: make(map[string]presence.Record),
		pending: make(map[uint64]chan wire.ServerFrame),
	}
	go c.run()
	return c
}

// Close stops reconnecting, drops the connection and waits for pending
// notifications to be delivered.
func (c *Client) Close() {
	c.cancel()
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
	<-c.done
	c.serial.Close()
}

// ConnID returns the hub-assigned id of the current connection.
func (c *Client) ConnID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Connected reports whether the hub has greeted the current connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) SubscribeConnectionState(fn func(connected bool)) presence.Unsubscribe {
	unsub, deliver := c.state.Add(fn)
	c.serial.Go(func() { deliver(c.Connected()) })
	return unsub
}

func (c *Client) SubscribeCollection(fn func(presence.CollectionEvent)) presence.Unsubscribe {
	var primed atomic.Bool
	unsub, deliver := c.coll.Add(func(ev presence.CollectionEvent) {
		if ev.Kind == presence.EventSnapshot {
			primed.Store(true)
		} else if !primed.Load() {
			return
		}
		fn(ev)
	})

	// A later subscriber is primed from the mirror; the first one waits for
	// the hub's snapshot.
	c.serial.Go(func() {
		if c.primed {
			deliver(presence.SnapshotEvent(c.records))
		}
	})
	c.mu.Lock()
	c.collSubs++
	if c.collSubs == 1 {
		_ = c.sendLocked(wire.ClientFrame{Op: wire.OpSubscribe})
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			c.mu.Lock()
			c.collSubs--
			if c.collSubs == 0 {
				_ = c.sendLocked(wire.ClientFrame{Op: wire.OpUnsubscribe})
			}
			c.mu.Unlock()
		})
	}
}

func (c *Client) WriteRecord(ctx context.Context, uid string, rec presence.Record) error {
	return c.request(ctx, wire.ClientFrame{Op: wire.OpWrite, UID: uid, Record: &rec})
}

func (c *Client) ArmOnDisconnect(ctx context.Context, uid string, rec presence.Record) error {
	return c.request(ctx, wire.ClientFrame{Op: wire.OpArm, UID: uid, Record: &rec})
}

// Disarm cancels the write armed for uid on this connection.
func (c *Client) Disarm(ctx context.Context, uid string) error {
	return c.request(ctx, wire.ClientFrame{Op: wire.OpDisarm, UID: uid})
}

func (c *Client) request(ctx context.Context, f wire.ClientFrame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.RID = c.rid.Add(1)
	ack := make(chan wire.ServerFrame, 1)

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.connected {
		c.mu.Unlock()
		return presence.ErrNotConnected
	}
	c.pending[f.RID] = ack
	c.mu.Unlock()

	if err := c.send(f); err != nil {
		c.forget(f.RID)
		return err
	}

	select {
	case resp, ok := <-ack:
		if !ok {
			return ErrConnectionLost
		}
		if resp.Error != "" {
			return &wire.AckError{Op: f.Op, Code: resp.Error}
		}
		return nil
	case <-ctx.Done():
		c.forget(f.RID)
		return ctx.Err()
	}
}

func (c *Client) forget(rid uint64) {
	c.mu.Lock()
	delete(c.pending, rid)
	c.mu.Unlock()
}

func (c *Client) send(f wire.ClientFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(f)
}

// sendLocked queues f on the current connection. Caller holds mu.
func (c *Client) sendLocked(f wire.ClientFrame) error {
	b, err := wire.Encode(f)
	if err != nil {
		return fmt.Errorf("wsclient: encode %s: %w", f.Op, err)
	}
	if c.out == nil {
		return presence.ErrNotConnected
	}
	select {
	case c.out <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) run() {
	defer close(c.done)

	backoff := c.cfg.MinBackoff
	for {
		greeted, err := c.session()
		if c.ctx.Err() != nil {
			return
		}
		if greeted {
			backoff = c.cfg.MinBackoff
		}
		c.logger.Warn("realtime connection lost", "error", err, "retry_in", backoff)

		t := time.NewTimer(backoff)
		select {
		case <-c.ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

// session runs one connection until it drops.
func (c *Client) session() (greeted bool, err error) {
	header := http.Header{}
	if c.cfg.Token != nil {
		token, err := c.cfg.Token(c.ctx)
		if err != nil {
			return false, fmt.Errorf("token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := c.cfg.Dialer.DialContext(c.ctx, c.cfg.URL, header)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	out := make(chan []byte, sendBuffer)
	stop := make(chan struct{})
	pumpDone := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	if c.ctx.Err() != nil {
		_ = conn.Close()
		return false, ErrClosed
	}

	go func() {
		defer close(pumpDone)
		c.writePump(conn, out, stop)
	}()

	defer func() {
		c.teardown()
		close(stop)
		<-pumpDone
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return greeted, err
		}
		var f wire.ServerFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		switch f.Type {
		case wire.TypeHello:
			greeted = true
			c.greet(f.ConnID, out)
		case wire.TypeAck:
			c.mu.Lock()
			ack, ok := c.pending[f.RID]
			delete(c.pending, f.RID)
			c.mu.Unlock()
			if ok {
				ack <- f
			}
		case wire.TypeSnapshot, wire.TypeChange:
			ev, ok := f.Event()
			if !ok {
				c.logger.Warn("dropping incomplete change frame")
				continue
			}
			c.serial.Go(func() { c.apply(ev) })
		case wire.TypePong:
		default:
			c.logger.Debug("ignoring frame", "type", f.Type)
		}
	}
}

func (c *Client) greet(connID string, out chan []byte) {
	c.mu.Lock()
	c.connID = connID
	c.connected = true
	c.out = out
	if c.collSubs > 0 {
		_ = c.sendLocked(wire.ClientFrame{Op: wire.OpSubscribe})
	}
	c.mu.Unlock()

	c.logger.Info("realtime connected", "conn_id", connID)
	c.serial.Go(func() { c.state.Emit(true) })
}

func (c *Client) teardown() {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connID = ""
	c.conn = nil
	c.out = nil
	pending := c.pending
	c.pending = make(map[uint64]chan wire.ServerFrame)
	c.mu.Unlock()

	for _, ack := range pending {
		close(ack)
	}
	c.serial.Go(func() { c.primed = false })
	if wasConnected {
		c.serial.Go(func() { c.state.Emit(false) })
	}
}

func (c *Client) apply(ev presence.CollectionEvent) {
	switch ev.Kind {
	case presence.EventSnapshot:
		c.records = maps.Clone(ev.Records)
		c.primed = true
	case presence.EventChange:
		if cur, ok := c.records[ev.UID]; ok && cur.LastSeen.After(ev.Record.LastSeen) {
			return
		}
		c.records[ev.UID] = ev.Record
	}
	c.coll.Emit(ev)
}

func (c *Client) writePump(conn *websocket.Conn, out <-chan []byte, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case b := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-stop:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
