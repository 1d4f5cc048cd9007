package stranger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wsclient"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

// TestLoginLogoutScenario: two users come online, one signs out cleanly and
// the other drops without a goodbye.
func TestLoginLogoutScenario(t *testing.T) {
	mail := newMailbox()
	client := strangersdk.NewClient(startInstance(t, baseConfig(t.TempDir()), mail))

	neo := signUp(t, client, mail, "neo@example.com", "neo")
	trinity := signUp(t, client, mail, "trinity@example.com", "trinity")

	neoPresence, _ := goOnline(t, neo)
	requireNames(t, neoPresence, "neo")

	trinityPresence, trinityConn := goOnline(t, trinity)
	requireNames(t, neoPresence, "neo", "trinity")
	requireNames(t, trinityPresence, "neo", "trinity")
	requireServerNames(t, neo, "neo", "trinity")

	// Abrupt drop: the hub fires the armed offline write.
	trinityConn.Close()
	requireNames(t, neoPresence, "neo")

	// Explicit sign-out.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	neoPresence.Stop(ctx)
	requireServerNames(t, trinity)
}

// TestSharedUsernameCollapses: two accounts with the same username show up
// once and the name stays while either is online.
func TestSharedUsernameCollapses(t *testing.T) {
	mail := newMailbox()
	client := strangersdk.NewClient(startInstance(t, baseConfig(t.TempDir()), mail))

	a := signUp(t, client, mail, "smith1@example.com", "agent")
	b := signUp(t, client, mail, "smith2@example.com", "agent")

	aPresence, _ := goOnline(t, a)
	_, bConn := goOnline(t, b)
	requireNames(t, aPresence, "agent")

	bConn.Close()
	requireNames(t, aPresence, "agent")
	requireServerNames(t, a, "agent")
}

// TestUnverifiedUserIsTurnedAway covers the gate and the hub's own check.
func TestUnverifiedUserIsTurnedAway(t *testing.T) {
	mail := newMailbox()
	client := strangersdk.NewClient(startInstance(t, baseConfig(t.TempDir()), mail))
	ctx := t.Context()

	_, err := client.Register(ctx, strangersdk.RegisterRequest{Email: "cypher@example.com", Password: password, Username: "cypher"})
	require.NoError(t, err)
	sess, err := client.Login(ctx, "cypher@example.com", password)
	require.NoError(t, err)

	id, err := sess.Identity(ctx)
	require.NoError(t, err)
	require.False(t, id.EmailVerified)

	backend := wsclient.New(wsclient.Config{URL: sess.RealtimeURL(), Token: sess.Token, Logger: slogx.Discard()})
	t.Cleanup(backend.Close)
	gate := presence.Gate{Tracker: &presence.Tracker{Backend: backend, Logger: slogx.Discard()}}
	_, err = gate.Enter(ctx, id)
	require.ErrorIs(t, err, presence.ErrVerificationRequired)

	// Skipping the gate does not help: the hub refuses unverified writes.
	require.Eventually(t, backend.Connected, waitFor, tick)
	err = backend.WriteRecord(ctx, id.UID, presence.Record{Username: "cypher", Online: true})
	require.Error(t, err)

	_, err = sess.OnlineUsernames(ctx)
	require.ErrorIs(t, err, strangersdk.ErrVerificationRequired)
}

func TestHealthEndpoints(t *testing.T) {
	client := strangersdk.NewClient(startInstance(t, baseConfig(t.TempDir()), newMailbox()))

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, jwks.Keys)
}
