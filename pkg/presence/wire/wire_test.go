package wire_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wire"
	"github.com/stretchr/testify/require"
)

func TestServerFrameEvent(t *testing.T) {
	t.Parallel()

	rec := presence.Record{Username: "Neo", Online: true, LastSeen: time.Unix(1700000000, 0).UTC()}

	t.Run("snapshot", func(t *testing.T) {
		ev, ok := wire.ServerFrame{
			Type:    wire.TypeSnapshot,
			Records: map[string]presence.Record{"u1": rec},
		}.Event()
		require.True(t, ok)
		require.Equal(t, presence.EventSnapshot, ev.Kind)
		require.Equal(t, rec, ev.Records["u1"])
	})

	t.Run("empty snapshot is still a snapshot", func(t *testing.T) {
		ev, ok := wire.ServerFrame{Type: wire.TypeSnapshot}.Event()
		require.True(t, ok)
		require.Empty(t, ev.Records)
	})

	t.Run("change", func(t *testing.T) {
		ev, ok := wire.ServerFrame{Type: wire.TypeChange, UID: "u1", Record: &rec}.Event()
		require.True(t, ok)
		require.Equal(t, presence.EventChange, ev.Kind)
		require.Equal(t, "u1", ev.UID)
	})

	t.Run("change missing record", func(t *testing.T) {
		_, ok := wire.ServerFrame{Type: wire.TypeChange, UID: "u1"}.Event()
		require.False(t, ok)
	})

	t.Run("ack is not an event", func(t *testing.T) {
		_, ok := wire.ServerFrame{Type: wire.TypeAck, RID: 1}.Event()
		require.False(t, ok)
	})
}

func TestRecordUsesLastSeenKey(t *testing.T) {
	t.Parallel()

	b, err := wire.Encode(wire.ClientFrame{
		Op:     wire.OpWrite,
		RID:    7,
		UID:    "u1",
		Record: &presence.Record{Username: "Neo", Online: true},
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	record := raw["record"].(map[string]any)
	require.Contains(t, record, "lastSeen")
	require.Equal(t, "Neo", record["username"])
	require.Equal(t, true, record["online"])
}
