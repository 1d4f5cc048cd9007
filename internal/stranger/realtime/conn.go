package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
	sendBuffer     = 256

	// requestTimeout bounds the store work behind one client frame.
	requestTimeout = 5 * time.Second
)

type subState int

const (
	subNone subState = iota
	subPriming
	subLive
)

// conn is one websocket client. Frames are handled one at a time on the
// read goroutine; everything sent goes through the send queue.
type conn struct {
	hub      *Hub
	ws       *websocket.Conn
	id       string
	uid      string
	verified bool
	logger   *slog.Logger

	send       chan []byte
	quit       chan struct{}
	quitOnce   sync.Once
	writerDone chan struct{}

	mu      sync.Mutex
	armed   map[string]struct{}
	sub     subState
	pending []domain.StatusChange
	unsub   presence.Unsubscribe
}

func newConn(h *Hub, ws *websocket.Conn, claims jwtx.Claims) *conn {
	id := uuid.NewString()
	return &conn{
		hub:        h,
		ws:         ws,
		id:         id,
		uid:        claims.Subject,
		verified:   claims.EmailVerified,
		logger:     h.logger.With("conn_id", id, "uid", claims.Subject),
		send:       make(chan []byte, sendBuffer),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
		armed:      make(map[string]struct{}),
	}
}

func (c *conn) start() {
	c.logger.Info("realtime client connected")
	c.enqueue(wire.ServerFrame{Type: wire.TypeHello, ConnID: c.id})

	go c.writePump()
	go c.readPump()
}

// shutdown asks the writer to send a close frame and drop the socket, which
// ends the read loop.
func (c *conn) shutdown() {
	c.quitOnce.Do(func() { close(c.quit) })
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (c *conn) enqueue(f wire.ServerFrame) {
	b, err := wire.Encode(f)
	if err != nil {
		c.logger.Error("failed to encode frame", "type", f.Type, "error", err)
		return
	}
	select {
	case c.send <- b:
	default:
		c.logger.Warn("send queue full, dropping client")
		c.shutdown()
	}
}

func (c *conn) readPump() {
	defer c.hub.wg.Done()
	defer c.finish()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("realtime client dropped", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var f wire.ClientFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			c.logger.Debug("malformed client frame", "error", err)
			c.enqueue(wire.ServerFrame{Type: wire.TypeAck, Error: wire.ErrCodeInvalidRequest})
			continue
		}
		c.handle(f)
	}
}

func (c *conn) writePump() {
	defer close(c.writerDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.ws.Close()
				return
			}
		case <-c.quit:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			_ = c.ws.Close()
			return
		}
	}
}

// finish runs once the read loop ends: the connection is gone, so its armed
// writes fire.
func (c *conn) finish() {
	c.unsubscribe()
	c.hub.unregister(c)
	c.shutdown()
	<-c.writerDone

	uids := c.armedUIDs()
	if len(uids) == 0 {
		c.logger.Info("realtime client disconnected")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	leases, err := c.hub.store.Release(ctx, c.id, uids)
	if err != nil {
		// The leases stay in the store; housekeeping fires them on expiry.
		c.logger.Error("failed to release armed writes", "error", err)
		return
	}
	fired := c.hub.fire(ctx, leases)
	c.logger.Info("realtime client disconnected", "armed_fired", fired)
}

func (c *conn) handle(f wire.ClientFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var code string
	switch f.Op {
	case wire.OpWrite:
		code = c.write(ctx, f)
	case wire.OpArm:
		code = c.arm(ctx, f)
	case wire.OpDisarm:
		code = c.disarm(ctx, f)
	case wire.OpSubscribe:
		code = c.subscribe(ctx)
	case wire.OpUnsubscribe:
		c.unsubscribe()
	case wire.OpPing:
		c.enqueue(wire.ServerFrame{Type: wire.TypePong, RID: f.RID})
		return
	default:
		code = wire.ErrCodeInvalidRequest
	}

	if f.RID != 0 || code != "" {
		c.enqueue(wire.ServerFrame{Type: wire.TypeAck, RID: f.RID, Error: code})
	}
}

// authorize allows a client to touch only its own record, and only once
// its email address is verified.
func (c *conn) authorize(f wire.ClientFrame, needRecord bool) string {
	if f.UID == "" || (needRecord && f.Record == nil) {
		return wire.ErrCodeInvalidRequest
	}
	if f.UID != c.uid || !c.verified {
		c.logger.Warn("rejected presence write", "op", f.Op, "target_uid", f.UID, "verified", c.verified)
		return wire.ErrCodePermissionDenied
	}
	return ""
}

func (c *conn) write(ctx context.Context, f wire.ClientFrame) string {
	if code := c.authorize(f, true); code != "" {
		return code
	}
	if _, err := c.hub.Write(ctx, f.UID, *f.Record); err != nil {
		c.logger.Error("presence write failed", "error", err)
		return wire.ErrCodeServerError
	}
	return ""
}

func (c *conn) arm(ctx context.Context, f wire.ClientFrame) string {
	if code := c.authorize(f, true); code != "" {
		return code
	}
	lease := domain.Lease{
		ConnID:    c.id,
		UID:       f.UID,
		Record:    *f.Record,
		ExpiresAt: c.hub.now().Add(c.hub.leaseTTL),
	}
	if err := c.hub.store.Arm(ctx, lease); err != nil {
		c.logger.Error("arm failed", "error", err)
		return wire.ErrCodeServerError
	}

	c.mu.Lock()
	c.armed[f.UID] = struct{}{}
	c.mu.Unlock()
	return ""
}

func (c *conn) disarm(ctx context.Context, f wire.ClientFrame) string {
	if code := c.authorize(f, false); code != "" {
		return code
	}
	if err := c.hub.store.Disarm(ctx, c.id, f.UID); err != nil {
		c.logger.Error("disarm failed", "error", err)
		return wire.ErrCodeServerError
	}

	c.mu.Lock()
	delete(c.armed, f.UID)
	c.mu.Unlock()
	return ""
}

func (c *conn) leaseID() string { return c.id }

func (c *conn) armedUIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	uids := make([]string, 0, len(c.armed))
	for uid := range c.armed {
		uids = append(uids, uid)
	}
	return uids
}

// subscribe sends a snapshot followed by live changes. Changes arriving
// while the snapshot is read are held and replayed after it; replaying a
// change the snapshot already reflects is harmless because every change
// carries the whole record.
func (c *conn) subscribe(ctx context.Context) string {
	c.mu.Lock()
	if c.sub != subNone {
		c.mu.Unlock()
		return ""
	}
	c.sub = subPriming
	c.mu.Unlock()

	unsub := c.hub.SubscribeChanges(c.onChange)

	records, err := c.hub.Records(ctx)
	if err != nil {
		unsub()
		c.mu.Lock()
		c.sub = subNone
		c.pending = nil
		c.mu.Unlock()
		c.logger.Error("snapshot read failed", "error", err)
		return wire.ErrCodeServerError
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsub = unsub
	c.enqueue(wire.ServerFrame{Type: wire.TypeSnapshot, Records: records})
	for _, ch := range c.pending {
		c.enqueueChange(ch)
	}
	c.pending = nil
	c.sub = subLive
	return ""
}

func (c *conn) unsubscribe() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.sub = subNone
	c.pending = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *conn) onChange(ch domain.StatusChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.sub {
	case subPriming:
		c.pending = append(c.pending, ch)
	case subLive:
		c.enqueueChange(ch)
	}
}

func (c *conn) enqueueChange(ch domain.StatusChange) {
	rec := ch.Record
	c.enqueue(wire.ServerFrame{Type: wire.TypeChange, UID: ch.UID, Record: &rec})
}
