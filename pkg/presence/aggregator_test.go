package presence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/stretchr/testify/require"
)

// scriptedBackend hands events to the collection subscriber synchronously so
// tests control exactly what the aggregator sees.
type scriptedBackend struct {
	mu    sync.Mutex
	fn    func(presence.CollectionEvent)
	unsub int
}

func (b *scriptedBackend) SubscribeConnectionState(func(bool)) presence.Unsubscribe {
	return func() {}
}

func (b *scriptedBackend) WriteRecord(context.Context, string, presence.Record) error {
	return nil
}

func (b *scriptedBackend) ArmOnDisconnect(context.Context, string, presence.Record) error {
	return nil
}

func (b *scriptedBackend) SubscribeCollection(fn func(presence.CollectionEvent)) presence.Unsubscribe {
	b.mu.Lock()
	b.fn = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.unsub++
		b.fn = nil
		b.mu.Unlock()
	}
}

func (b *scriptedBackend) send(ev presence.CollectionEvent) {
	b.mu.Lock()
	fn := b.fn
	b.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func TestAggregatorAppliesSnapshotsAndChanges(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{}
	agg := presence.Aggregate(backend, nil)
	t.Cleanup(agg.Close)

	require.False(t, agg.Synced())
	require.Empty(t, agg.Names())

	backend.send(presence.SnapshotEvent(map[string]presence.Record{
		"u1": {Username: "Neo", Online: true},
		"u2": {Username: "Trinity", Online: false},
	}))
	require.True(t, agg.Synced())
	require.Equal(t, []string{"Neo"}, agg.Names())
	require.Equal(t, []string{"Neo"}, <-agg.Updates())

	backend.send(presence.ChangeEvent("u2", presence.Record{Username: "Trinity", Online: true}))
	require.Equal(t, []string{"Neo", "Trinity"}, agg.Names())

	backend.send(presence.ChangeEvent("u1", presence.Record{Username: "Neo", Online: false}))
	require.Equal(t, []string{"Trinity"}, agg.Names())

	// Only the latest unread list is kept.
	require.Equal(t, []string{"Trinity"}, <-agg.Updates())
}

func TestAggregatorSnapshotReplacesState(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{}
	agg := presence.Aggregate(backend, nil)
	t.Cleanup(agg.Close)

	backend.send(presence.ChangeEvent("u9", presence.Record{Username: "Ghost", Online: true}))
	require.Equal(t, []string{"Ghost"}, agg.Names())

	backend.send(presence.SnapshotEvent(map[string]presence.Record{
		"u1": {Username: "Neo", Online: true},
	}))
	require.Equal(t, []string{"Neo"}, agg.Names())
	require.NotContains(t, agg.Records(), "u9")
}

func TestAggregatorDropsChangesOlderThanHeldRecord(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{}
	agg := presence.Aggregate(backend, nil)
	t.Cleanup(agg.Close)

	t0 := time.Unix(1700000000, 0).UTC()
	backend.send(presence.SnapshotEvent(map[string]presence.Record{}))

	// Two instances publish in the opposite order to the one they stored.
	backend.send(presence.ChangeEvent("u1", presence.Record{Username: "Neo", Online: false, LastSeen: t0.Add(time.Second)}))
	backend.send(presence.ChangeEvent("u1", presence.Record{Username: "Neo", Online: true, LastSeen: t0}))
	require.Empty(t, agg.Names())
	require.False(t, agg.Records()["u1"].Online)

	// Equal timestamps fall back to arrival order.
	backend.send(presence.ChangeEvent("u1", presence.Record{Username: "Neo", Online: true, LastSeen: t0.Add(time.Second)}))
	require.Equal(t, []string{"Neo"}, agg.Names())
}

func TestAggregatorIgnoresChangeWithoutUID(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{}
	agg := presence.Aggregate(backend, nil)
	t.Cleanup(agg.Close)

	backend.send(presence.ChangeEvent("", presence.Record{Username: "Nobody", Online: true}))
	require.Empty(t, agg.Names())
}

func TestAggregatorCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{}
	agg := presence.Aggregate(backend, nil)

	backend.send(presence.SnapshotEvent(map[string]presence.Record{
		"u1": {Username: "Neo", Online: true},
	}))

	agg.Close()
	agg.Close()
	require.Equal(t, 1, backend.unsub)

	// Drain and confirm the channel is closed.
	for range agg.Updates() {
	}
	_, open := <-agg.Updates()
	require.False(t, open)

	require.Equal(t, []string{"Neo"}, agg.Names())
}

func TestAggregatorAgainstMemoryDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := presence.NewMemoryDatabase()
	t.Cleanup(db.Close)
	writer := db.NewClient()
	writer.Connect()

	w := &presence.Writer{Backend: writer}
	require.NoError(t, w.PublishOnline(ctx, "u1", "Neo"))

	agg := presence.Aggregate(db.NewClient(), nil)
	t.Cleanup(agg.Close)
	db.Flush()
	require.Equal(t, []string{"Neo"}, agg.Names())

	require.NoError(t, w.PublishOnline(ctx, "u2", "Morpheus"))
	db.Flush()
	require.Equal(t, []string{"Neo", "Morpheus"}, agg.Names())
}
