package presence

import (
	"context"
	"time"
)

// Record is the presence entry stored at status/<uid>.
type Record struct {
	Username string    `json:"username"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"` // assigned by the backend at write time
}

// Unsubscribe cancels a subscription. It is safe to call more than once and
// no callback is delivered after it returns.
type Unsubscribe func()

// EventKind tells a collection subscriber how to apply an event.
type EventKind int

const (
	// EventSnapshot carries the complete collection and replaces all known state.
	EventSnapshot EventKind = iota
	// EventChange carries a single record that was written.
	EventChange
)

func (k EventKind) String() string {
	switch k {
	case EventSnapshot:
		return "snapshot"
	case EventChange:
		return "change"
	default:
		return "unknown"
	}
}

// CollectionEvent is delivered to collection subscribers.
type CollectionEvent struct {
	Kind EventKind

	// Records is set for EventSnapshot.
	Records map[string]Record

	// UID and Record are set for EventChange.
	UID    string
	Record Record
}

// SnapshotEvent builds an EventSnapshot holding a copy of records.
func SnapshotEvent(records map[string]Record) CollectionEvent {
	cp := make(map[string]Record, len(records))
	for uid, rec := range records {
		cp[uid] = rec
	}
	return CollectionEvent{Kind: EventSnapshot, Records: cp}
}

// ChangeEvent builds an EventChange for one record.
func ChangeEvent(uid string, rec Record) CollectionEvent {
	return CollectionEvent{Kind: EventChange, UID: uid, Record: rec}
}

// Backend is the realtime store the presence core runs against.
//
// Implementations deliver callbacks asynchronously and never while the
// caller of WriteRecord or ArmOnDisconnect is blocked inside the backend, so
// a callback may itself write.
type Backend interface {
	// SubscribeConnectionState reports transport connectivity. The current
	// state is delivered shortly after subscribing.
	SubscribeConnectionState(fn func(connected bool)) Unsubscribe

	// WriteRecord overwrites status/<uid>. LastSeen is set by the backend.
	WriteRecord(ctx context.Context, uid string, rec Record) error

	// ArmOnDisconnect registers rec to be written to status/<uid> by the
	// backend when this client's transport drops. An arm is consumed once it
	// fires or the connection cycles.
	ArmOnDisconnect(ctx context.Context, uid string, rec Record) error

	// SubscribeCollection streams the whole status collection. The first
	// event is always a snapshot.
	SubscribeCollection(fn func(CollectionEvent)) Unsubscribe
}
