// Package realtime serves the status collection over websockets: writes,
// disconnect-armed writes and a live snapshot-plus-changes feed.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/internal/stranger/realtime/bus"
	"github.com/aussiebroadwan/stranger/internal/stranger/realtime/statusstore"
	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// DefaultLeaseTTL bounds how long an armed write outlives a crashed
// instance before housekeeping fires it.
const DefaultLeaseTTL = 45 * time.Second

// fireTimeout bounds the writes fired when a connection closes.
const fireTimeout = 5 * time.Second

// writeStripes is the number of locks uids are hashed onto in Write.
const writeStripes = 64

var ErrHubClosed = errors.New("realtime: hub closed")

type Config struct {
	Store  statusstore.Store
	Bus    bus.Bus
	Logger *slog.Logger

	// InstanceID tags published changes. Defaults to a random UUID.
	InstanceID string

	LeaseTTL time.Duration

	// CheckOrigin is handed to the websocket upgrader. Nil applies the
	// same-host check.
	CheckOrigin func(r *http.Request) bool

	// Now stamps LastSeen. Defaults to time.Now.
	Now func() time.Time
}

// Hub owns this instance's websocket connections. Every write goes to the
// shared Store and is published on the Bus; the Hub feeds what comes back
// off the Bus to its local subscribers, so all instances deliver the same
// order.
type Hub struct {
	store      statusstore.Store
	bus        bus.Bus
	logger     *slog.Logger
	instanceID string
	leaseTTL   time.Duration
	now        func() time.Time
	upgrader   websocket.Upgrader

	changes presence.Fanout[domain.StatusChange]

	writeLocks [writeStripes]sync.Mutex

	mu      sync.Mutex
	conns   map[string]*conn
	holders map[string]leaseHolder
	closing bool
	wg      sync.WaitGroup

	unsubBus presence.Unsubscribe
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewHub(cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Hub{
		store:      cfg.Store,
		bus:        cfg.Bus,
		logger:     cfg.Logger.With("component", "realtime", "instance", cfg.InstanceID),
		instanceID: cfg.InstanceID,
		leaseTTL:   cfg.LeaseTTL,
		now:        cfg.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		conns:   make(map[string]*conn),
		holders: make(map[string]leaseHolder),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start subscribes to the bus and starts renewing leases.
func (h *Hub) Start(ctx context.Context) error {
	unsub, err := h.bus.Subscribe(ctx, h.changes.Emit)
	if err != nil {
		return fmt.Errorf("realtime: subscribe bus: %w", err)
	}
	h.unsubBus = unsub

	go h.renewLoop()
	h.logger.Info("realtime hub started", "lease_ttl", h.leaseTTL)
	return nil
}

// Close drops every connection, firing their armed writes, and stops the
// hub. It waits for connections to finish until ctx is done.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return nil
	}
	h.closing = true
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	close(h.stopCh)
	for _, c := range conns {
		c.shutdown()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if h.unsubBus != nil {
		<-h.doneCh
		h.unsubBus()
	}
	h.logger.Info("realtime hub stopped", "connections", len(conns))
	return err
}

// ServeHTTP upgrades an authenticated request. It must run behind
// httpx.AuthnMiddleware.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_token",
			"error_description": "missing bearer token",
		})
		return
	}

	h.mu.Lock()
	closing := h.closing
	h.mu.Unlock()
	if closing {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":             "server_error",
			"error_description": "server is shutting down",
		})
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		slogx.FromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(h, ws, claims)
	if !h.register(c) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	c.start()
}

func (h *Hub) register(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.conns[c.id] = c
	h.wg.Add(1)
	return true
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
}

// leaseHolder is anything holding armed writes this hub keeps alive.
type leaseHolder interface {
	leaseID() string
	armedUIDs() []string
}

func (h *Hub) addHolder(l leaseHolder) {
	h.mu.Lock()
	h.holders[l.leaseID()] = l
	h.mu.Unlock()
}

func (h *Hub) removeHolder(l leaseHolder) {
	h.mu.Lock()
	delete(h.holders, l.leaseID())
	h.mu.Unlock()
}

// ConnCount returns the number of open connections on this instance.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Write stamps rec with the server time, stores it and publishes the
// change. Writes for one uid are serialized so the store and the bus see
// them in the same order. A record that loses to a later one already stored
// by another instance is not published.
func (h *Hub) Write(ctx context.Context, uid string, rec presence.Record) (presence.Record, error) {
	mu := h.writeLock(uid)
	mu.Lock()
	defer mu.Unlock()

	rec.LastSeen = h.now().UTC()
	stored, err := h.store.Put(ctx, uid, rec)
	if err != nil {
		return rec, fmt.Errorf("realtime: store %s: %w", uid, err)
	}
	if !stored {
		h.logger.Debug("status write superseded", "uid", uid)
		return rec, nil
	}
	if err := h.bus.Publish(ctx, domain.StatusChange{UID: uid, Record: rec, Origin: h.instanceID}); err != nil {
		return rec, fmt.Errorf("realtime: publish %s: %w", uid, err)
	}
	return rec, nil
}

func (h *Hub) writeLock(uid string) *sync.Mutex {
	f := fnv.New32a()
	_, _ = f.Write([]byte(uid))
	return &h.writeLocks[f.Sum32()%writeStripes]
}

// Records reads the whole collection.
func (h *Hub) Records(ctx context.Context) (map[string]presence.Record, error) {
	return h.store.All(ctx)
}

// SubscribeChanges registers fn for every change delivered to this
// instance. fn runs on the bus goroutine and must not block.
func (h *Hub) SubscribeChanges(fn func(domain.StatusChange)) presence.Unsubscribe {
	unsub, _ := h.changes.Add(fn)
	return unsub
}

// Ping checks the shared store.
func (h *Hub) Ping(ctx context.Context) error {
	return h.store.Ping(ctx)
}

// SweepExpiredLeases fires the armed writes of connections whose instance
// stopped renewing them.
func (h *Hub) SweepExpiredLeases(ctx context.Context) (int, error) {
	leases, err := h.store.PopExpired(ctx, h.now())
	if err != nil {
		return 0, fmt.Errorf("realtime: pop expired leases: %w", err)
	}
	return h.fire(ctx, leases), nil
}

// fire writes each lease's armed record. Failures are logged; the lease is
// already gone.
func (h *Hub) fire(ctx context.Context, leases []domain.Lease) int {
	n := 0
	for _, l := range leases {
		if _, err := h.Write(ctx, l.UID, l.Record); err != nil {
			h.logger.Error("failed to fire armed write", "conn_id", l.ConnID, "uid", l.UID, "error", err)
			continue
		}
		n++
	}
	return n
}

func (h *Hub) renewLoop() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.leaseTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.renewLeases()
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) renewLeases() {
	h.mu.Lock()
	holders := make([]leaseHolder, 0, len(h.conns)+len(h.holders))
	for _, c := range h.conns {
		holders = append(holders, c)
	}
	for _, l := range h.holders {
		holders = append(holders, l)
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.leaseTTL/3)
	defer cancel()

	expiresAt := h.now().Add(h.leaseTTL)
	for _, l := range holders {
		uids := l.armedUIDs()
		if len(uids) == 0 {
			continue
		}
		if err := h.store.RenewLeases(ctx, l.leaseID(), uids, expiresAt); err != nil {
			h.logger.Warn("failed to renew presence leases", "conn_id", l.leaseID(), "error", err)
		}
	}
}
