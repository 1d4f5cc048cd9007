package presence_test

import (
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/stretchr/testify/require"
)

func TestMonitorFiresOncePerConnect(t *testing.T) {
	t.Parallel()

	db := presence.NewMemoryDatabase()
	t.Cleanup(db.Close)
	client := db.NewClient()

	var fired atomic.Int32
	m := presence.WatchConnection(client, func() { fired.Add(1) })
	t.Cleanup(m.Close)

	db.Flush()
	require.Equal(t, int32(0), fired.Load(), "initial false must not fire")

	client.Connect()
	db.Flush()
	require.Equal(t, int32(1), fired.Load())
	require.True(t, m.Connected())

	// A repeated true without a false in between is not a transition.
	client.Connect()
	db.Flush()
	require.Equal(t, int32(1), fired.Load())

	client.Disconnect()
	db.Flush()
	require.Equal(t, int32(1), fired.Load())
	require.False(t, m.Connected())

	client.Connect()
	db.Flush()
	require.Equal(t, int32(2), fired.Load(), "reconnect must fire again")
}

func TestMonitorNeverConnected(t *testing.T) {
	t.Parallel()

	db := presence.NewMemoryDatabase()
	t.Cleanup(db.Close)
	client := db.NewClient()

	var fired atomic.Int32
	m := presence.WatchConnection(client, func() { fired.Add(1) })
	t.Cleanup(m.Close)

	db.Flush()
	require.Equal(t, int32(0), fired.Load())
	require.Empty(t, db.Records())
}

func TestMonitorCloseStopsDelivery(t *testing.T) {
	t.Parallel()

	db := presence.NewMemoryDatabase()
	t.Cleanup(db.Close)
	client := db.NewClient()

	var fired atomic.Int32
	m := presence.WatchConnection(client, func() { fired.Add(1) })
	db.Flush()

	m.Close()
	m.Close()

	client.Connect()
	db.Flush()
	require.Equal(t, int32(0), fired.Load())
}
