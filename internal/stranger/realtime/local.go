package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// snapshotRetry is the delay before a failed snapshot read is retried.
const snapshotRetry = time.Second

// LocalBackend is a presence.Backend bound directly to a Hub, for server
// code that watches the collection without a websocket. It is connected for
// as long as it is open; its armed writes fire on Close.
type LocalBackend struct {
	hub    *Hub
	connID string
	serial *presence.Serial
	state  presence.Fanout[bool]

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	armed     map[string]struct{}
	closeOnce sync.Once
}

var _ presence.Backend = (*LocalBackend)(nil)

// NewLocalBackend opens a backend whose leases h renews until Close.
func NewLocalBackend(h *Hub) *LocalBackend {
	ctx, cancel := context.WithCancel(context.Background())
	b := &LocalBackend{
		hub:    h,
		connID: "local-" + uuid.NewString(),
		serial: presence.NewSerial(),
		ctx:    ctx,
		cancel: cancel,
		armed:  make(map[string]struct{}),
	}
	h.addHolder(b)
	return b
}

func (b *LocalBackend) leaseID() string { return b.connID }

func (b *LocalBackend) armedUIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	uids := make([]string, 0, len(b.armed))
	for uid := range b.armed {
		uids = append(uids, uid)
	}
	return uids
}

func (b *LocalBackend) SubscribeConnectionState(fn func(connected bool)) presence.Unsubscribe {
	unsub, deliver := b.state.Add(fn)
	b.serial.Go(func() { deliver(b.ctx.Err() == nil) })
	return unsub
}

func (b *LocalBackend) WriteRecord(ctx context.Context, uid string, rec presence.Record) error {
	if b.ctx.Err() != nil {
		return presence.ErrNotConnected
	}
	_, err := b.hub.Write(ctx, uid, rec)
	return err
}

func (b *LocalBackend) ArmOnDisconnect(ctx context.Context, uid string, rec presence.Record) error {
	if b.ctx.Err() != nil {
		return presence.ErrNotConnected
	}
	err := b.hub.store.Arm(ctx, domain.Lease{
		ConnID:    b.connID,
		UID:       uid,
		Record:    rec,
		ExpiresAt: b.hub.now().Add(b.hub.leaseTTL),
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.armed[uid] = struct{}{}
	b.mu.Unlock()
	return nil
}

// SubscribeCollection delivers a snapshot and then every change, in order.
// Once the returned Unsubscribe has returned, fn is not running and is not
// called again.
func (b *LocalBackend) SubscribeCollection(fn func(presence.CollectionEvent)) presence.Unsubscribe {
	var (
		mu      sync.Mutex
		primed  bool
		pending []presence.CollectionEvent
		stopped atomic.Bool
		sink    presence.Fanout[presence.CollectionEvent]
	)
	unsubSink, deliver := sink.Add(fn)

	unsubChanges := b.hub.SubscribeChanges(func(c domain.StatusChange) {
		ev := presence.ChangeEvent(c.UID, c.Record)
		mu.Lock()
		defer mu.Unlock()
		if !primed {
			pending = append(pending, ev)
			return
		}
		b.serial.Go(func() { deliver(ev) })
	})

	var prime func()
	prime = func() {
		if stopped.Load() || b.ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(b.ctx, requestTimeout)
		records, err := b.hub.Records(ctx)
		cancel()
		if err != nil {
			b.hub.logger.Warn("local snapshot read failed, retrying", "error", err)
			time.AfterFunc(snapshotRetry, prime)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		buffered := pending
		pending = nil
		primed = true
		b.serial.Go(func() {
			deliver(presence.SnapshotEvent(records))
			for _, ev := range buffered {
				deliver(ev)
			}
		})
	}
	go prime()

	return func() {
		stopped.Store(true)
		unsubChanges()
		unsubSink()
	}
}

// Close fires this backend's armed writes and reports it disconnected.
func (b *LocalBackend) Close() {
	b.closeOnce.Do(b.close)
}

func (b *LocalBackend) close() {
	b.cancel()
	b.hub.removeHolder(b)

	uids := b.armedUIDs()
	b.mu.Lock()
	b.armed = make(map[string]struct{})
	b.mu.Unlock()

	if len(uids) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
		leases, err := b.hub.store.Release(ctx, b.connID, uids)
		if err != nil {
			b.hub.logger.Error("failed to release local armed writes", "error", err)
		} else {
			b.hub.fire(ctx, leases)
		}
		cancel()
	}

	b.serial.Go(func() { b.state.Emit(false) })
	b.serial.Close()
}
