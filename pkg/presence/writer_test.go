package presence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/stretchr/testify/require"
)

func newConnectedClient(t *testing.T) (*presence.MemoryDatabase, *presence.MemoryClient) {
	t.Helper()
	db := presence.NewMemoryDatabase()
	t.Cleanup(db.Close)
	client := db.NewClient()
	client.Connect()
	return db, client
}

func TestPublishOnlineIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, client := newConnectedClient(t)
	w := &presence.Writer{Backend: client}

	require.NoError(t, w.PublishOnline(ctx, "u1", "Bob"))
	first, ok := db.Record("u1")
	require.True(t, ok)

	require.NoError(t, w.PublishOnline(ctx, "u1", "Bob"))
	second, ok := db.Record("u1")
	require.True(t, ok)

	require.Equal(t, first.Username, second.Username)
	require.Equal(t, first.Online, second.Online)
	require.True(t, second.Online)
	require.Len(t, db.Records(), 1)
}

func TestWriterStampsServerTime(t *testing.T) {
	t.Parallel()

	db, client := newConnectedClient(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	db.Now = func() time.Time { return fixed }

	w := &presence.Writer{Backend: client}
	require.NoError(t, w.PublishOnline(context.Background(), "u1", "Bob"))

	rec, _ := db.Record("u1")
	require.Equal(t, fixed, rec.LastSeen)
}

func TestWriterValidatesInputs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, client := newConnectedClient(t)
	w := &presence.Writer{Backend: client}

	require.ErrorIs(t, w.PublishOnline(ctx, "", "Bob"), presence.ErrEmptyUID)
	require.ErrorIs(t, w.PublishOffline(ctx, "u1", ""), presence.ErrEmptyUsername)
	require.ErrorIs(t, w.ArmDisconnectOffline(ctx, "", ""), presence.ErrEmptyUID)
	require.Zero(t, client.Writes())
}

func TestArmDisconnectOfflineFiresOnDrop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, client := newConnectedClient(t)
	w := &presence.Writer{Backend: client}

	require.NoError(t, w.ArmDisconnectOffline(ctx, "u1", "Bob"))
	require.NoError(t, w.PublishOnline(ctx, "u1", "Bob"))

	armed, ok := client.Armed("u1")
	require.True(t, ok)
	require.False(t, armed.Online)

	client.Disconnect()

	rec, ok := db.Record("u1")
	require.True(t, ok)
	require.False(t, rec.Online)
	require.Equal(t, "Bob", rec.Username)

	_, ok = client.Armed("u1")
	require.False(t, ok, "arm is consumed once fired")
}

func TestWriterWrapsBackendErrors(t *testing.T) {
	t.Parallel()

	_, client := newConnectedClient(t)
	boom := errors.New("boom")
	client.FailWrites(boom)

	w := &presence.Writer{Backend: client}
	err := w.PublishOffline(context.Background(), "u1", "Bob")
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "publish_offline")
}

func TestArmAndPublishSwallowsFailures(t *testing.T) {
	t.Parallel()

	db, client := newConnectedClient(t)
	client.FailWrites(errors.New("offline"))

	w := &presence.Writer{Backend: client}
	require.NotPanics(t, func() {
		w.ArmAndPublish(context.Background(), "u1", "Bob")
	})
	require.Empty(t, db.Records())
}
