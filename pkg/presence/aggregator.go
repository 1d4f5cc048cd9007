package presence

import (
	"log/slog"
	"slices"
	"sync"
)

// Aggregator keeps the online-name list for a whole status collection.
//
// Snapshots replace all known state; changes update one uid unless they carry
// an older LastSeen than the record already held. The list is recomputed with
// OnlineNames after every event.
type Aggregator struct {
	logger *slog.Logger

	mu      sync.Mutex
	records map[string]Record
	names   []string
	synced  bool
	closed  bool
	updates chan []string

	unsub     Unsubscribe
	closeOnce sync.Once
}

// Aggregate subscribes to the backend's status collection.
func Aggregate(backend Backend, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		logger:  logger,
		records: make(map[string]Record),
		names:   []string{},
		updates: make(chan []string, 1),
	}
	a.unsub = backend.SubscribeCollection(a.apply)
	return a
}

func (a *Aggregator) apply(ev CollectionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	switch ev.Kind {
	case EventSnapshot:
		a.records = make(map[string]Record, len(ev.Records))
		for uid, rec := range ev.Records {
			a.records[uid] = rec
		}
		a.synced = true
	case EventChange:
		if ev.UID == "" {
			a.logger.Warn("presence: change event without uid")
			return
		}
		if cur, ok := a.records[ev.UID]; ok && cur.LastSeen.After(ev.Record.LastSeen) {
			a.logger.Debug("presence: dropping stale change", "uid", ev.UID)
			return
		}
		a.records[ev.UID] = ev.Record
	default:
		a.logger.Warn("presence: unknown collection event", "kind", ev.Kind)
		return
	}

	a.names = OnlineNames(a.records)
	a.publish(slices.Clone(a.names))
}

// publish replaces any unread value on the updates channel. Caller holds mu.
func (a *Aggregator) publish(names []string) {
	select {
	case <-a.updates:
	default:
	}
	a.updates <- names
}

// Names returns the current online usernames.
func (a *Aggregator) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.names)
}

// Records returns a copy of the known collection.
func (a *Aggregator) Records() map[string]Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make(map[string]Record, len(a.records))
	for uid, rec := range a.records {
		cp[uid] = rec
	}
	return cp
}

// Synced reports whether a snapshot has been received.
func (a *Aggregator) Synced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.synced
}

// Updates yields the latest name list after each change. Only the most recent
// unread list is kept. The channel is closed by Close.
func (a *Aggregator) Updates() <-chan []string {
	return a.updates
}

// Close cancels the subscription and closes Updates. Safe to call more than
// once.
func (a *Aggregator) Close() {
	a.closeOnce.Do(func() {
		if a.unsub != nil {
			a.unsub()
		}
		a.mu.Lock()
		a.closed = true
		close(a.updates)
		a.mu.Unlock()
	})
}
