package stranger_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/stranger/internal/stranger/app"
	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wsclient"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

/*
 * End-to-end helpers: each instance is a full application served by
 * httptest and driven only through the SDK and the websocket client.
 */

const (
	password = "correct horse battery"
	waitFor  = 10 * time.Second
	tick     = 20 * time.Millisecond
)

// mailbox collects the verification codes every instance sends.
type mailbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func newMailbox() *mailbox {
	return &mailbox{codes: make(map[string]string)}
}

func (m *mailbox) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *mailbox) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

// baseConfig points instances that share dir at the same accounts database
// and key material.
func baseConfig(dir string) app.Config {
	roomy := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	return app.Config{
		Env:                  "test",
		ShutdownGracePeriod:  5 * time.Second,
		Issuer:               "stranger",
		DatabaseFile:         filepath.Join(dir, "stranger.db"),
		PepperFile:           filepath.Join(dir, "pepper"),
		SigningKeyFile:       filepath.Join(dir, "signing.pem"),
		TokenTTL:             time.Hour,
		VerifyPeriod:         10 * time.Minute,
		StatusStore:          app.DriverMemory,
		StatusBus:            app.DriverLocal,
		LeaseTTL:             2 * time.Second,
		HousekeepingInterval: time.Second,
		RateLimits:           httpx.RateLimits{Strict: roomy, Moderate: roomy, Lenient: roomy, Public: roomy},
	}
}

// startInstance runs an application until the test ends and returns its
// base URL.
func startInstance(t *testing.T, cfg app.Config, mail *mailbox) string {
	t.Helper()

	application, err := app.New(cfg, app.WithLogger(slogx.Discard()), app.WithMailer(mail))
	require.NoError(t, err)
	application.Start()

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, application.Shutdown())
	})
	return srv.URL
}

// signUp registers and verifies an account, then logs in.
func signUp(t *testing.T, client *strangersdk.Client, mail *mailbox, email, username string) *strangersdk.Session {
	t.Helper()
	ctx := t.Context()

	_, err := client.Register(ctx, strangersdk.RegisterRequest{Email: email, Password: password, Username: username})
	require.NoError(t, err)
	require.NoError(t, client.Verify(ctx, email, mail.code(email)))

	sess, err := client.Login(ctx, email, password)
	require.NoError(t, err)
	require.True(t, sess.EmailVerified())
	t.Cleanup(sess.Close)
	return sess
}

// goOnline enters presence through the gate over a websocket connection.
func goOnline(t *testing.T, sess *strangersdk.Session) (*presence.Session, *wsclient.Client) {
	t.Helper()
	ctx := t.Context()

	id, err := sess.Identity(ctx)
	require.NoError(t, err)

	backend := wsclient.New(wsclient.Config{
		URL:        sess.RealtimeURL(),
		Token:      sess.Token,
		Logger:     slogx.Discard(),
		MinBackoff: 50 * time.Millisecond,
		MaxBackoff: 500 * time.Millisecond,
	})
	t.Cleanup(backend.Close)

	gate := presence.Gate{
		Tracker:  &presence.Tracker{Backend: backend, Logger: slogx.Discard()},
		Profiles: sess.Profiles(),
		Logger:   slogx.Discard(),
	}
	ps, err := gate.Enter(ctx, id)
	require.NoError(t, err)
	return ps, backend
}

func requireNames(t *testing.T, s *presence.Session, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	require.Eventually(t, func() bool {
		return fmt.Sprint(s.OnlineUsernames()) == fmt.Sprint(want)
	}, waitFor, tick, "want %v, have %v", want, s.OnlineUsernames())
}

func requireServerNames(t *testing.T, sess *strangersdk.Session, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	require.Eventually(t, func() bool {
		res, err := sess.OnlineUsernames(t.Context())
		return err == nil && fmt.Sprint(res.Usernames) == fmt.Sprint(want)
	}, waitFor, tick)
}

// startContainer runs image and returns host:port for its exposed port.
func startContainer(t *testing.T, image, port, readyLog string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("container test skipped in -short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port + "/tcp"},
			WaitingFor:   wait.ForLog(readyLog).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}
