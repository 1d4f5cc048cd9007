package presence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotConnected is returned by MemoryClient writes while disconnected.
var ErrNotConnected = errors.New("presence: not connected")

// MemoryDatabase is an in-process status collection with the semantics of
// the realtime server: server-stamped LastSeen, ordered notifications and
// armed writes that fire when a client disconnects.
type MemoryDatabase struct {
	// Now stamps LastSeen. Defaults to time.Now in UTC.
	Now func() time.Time

	mu      sync.Mutex
	records map[string]Record

	serial *Serial
	coll   Fanout[CollectionEvent]
}

// NewMemoryDatabase returns an empty database. Close it when done.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		Now:     func() time.Time { return time.Now().UTC() },
		records: make(map[string]Record),
		serial:  NewSerial(),
	}
}

// NewClient opens a client connection. Clients start disconnected.
func (d *MemoryDatabase) NewClient() *MemoryClient {
	return &MemoryClient{db: d, armed: make(map[string]Record)}
}

// Record returns the stored record for uid.
func (d *MemoryDatabase) Record(uid string) (Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[uid]
	return rec, ok
}

// Records returns a copy of the collection.
func (d *MemoryDatabase) Records() map[string]Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make(map[string]Record, len(d.records))
	for uid, rec := range d.records {
		cp[uid] = rec
	}
	return cp
}

// Flush blocks until every notification queued so far has been delivered.
func (d *MemoryDatabase) Flush() {
	done := make(chan struct{})
	d.serial.Go(func() { close(done) })
	<-done
}

// Close delivers pending notifications and stops the dispatcher.
func (d *MemoryDatabase) Close() {
	d.serial.Close()
}

func (d *MemoryDatabase) put(uid string, rec Record) {
	d.mu.Lock()
	rec.LastSeen = d.Now()
	d.records[uid] = rec
	d.mu.Unlock()

	d.serial.Go(func() { d.coll.Emit(ChangeEvent(uid, rec)) })
}

func (d *MemoryDatabase) subscribe(fn func(CollectionEvent)) Unsubscribe {
	// Changes queued before the snapshot are already part of it.
	var primed atomic.Bool
	unsub, deliver := d.coll.Add(func(ev CollectionEvent) {
		if ev.Kind == EventChange && !primed.Load() {
			return
		}
		fn(ev)
	})
	d.serial.Go(func() {
		snap := SnapshotEvent(d.Records())
		primed.Store(true)
		deliver(snap)
	})
	return unsub
}

// MemoryClient is one connection to a MemoryDatabase and implements Backend.
type MemoryClient struct {
	db *MemoryDatabase

	mu        sync.Mutex
	connected bool
	armed     map[string]Record
	writeErr  error
	writes    int

	state Fanout[bool]
}

var _ Backend = (*MemoryClient)(nil)

// Connect brings the transport up.
func (c *MemoryClient) Connect() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.db.serial.Go(func() { c.state.Emit(true) })
}

// Disconnect drops the transport. Armed writes fire as if the server noticed
// the connection going away, and are then cleared.
func (c *MemoryClient) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	armed := c.armed
	c.armed = make(map[string]Record)
	c.mu.Unlock()

	for uid, rec := range armed {
		c.db.put(uid, rec)
	}
	c.db.serial.Go(func() { c.state.Emit(false) })
}

// FailWrites makes every following write return err. Pass nil to recover.
func (c *MemoryClient) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Writes counts accepted WriteRecord calls.
func (c *MemoryClient) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Armed returns the write armed for uid on this connection.
func (c *MemoryClient) Armed(uid string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.armed[uid]
	return rec, ok
}

func (c *MemoryClient) SubscribeConnectionState(fn func(connected bool)) Unsubscribe {
	c.mu.Lock()
	current := c.connected
	c.mu.Unlock()

	unsub, deliver := c.state.Add(fn)
	c.db.serial.Go(func() { deliver(current) })
	return unsub
}

func (c *MemoryClient) WriteRecord(ctx context.Context, uid string, rec Record) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()

	c.db.put(uid, rec)
	return nil
}

func (c *MemoryClient) ArmOnDisconnect(ctx context.Context, uid string, rec Record) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed[uid] = rec
	return nil
}

func (c *MemoryClient) SubscribeCollection(fn func(CollectionEvent)) Unsubscribe {
	return c.db.subscribe(fn)
}

func (c *MemoryClient) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if !c.connected {
		return ErrNotConnected
	}
	return nil
}
