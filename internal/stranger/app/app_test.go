package app

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stranger/pkg/slogx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := LoadConfig()

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "stranger", cfg.Issuer)
	require.Equal(t, DriverMemory, cfg.StatusStore)
	require.Equal(t, DriverLocal, cfg.StatusBus)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, 45*time.Second, cfg.LeaseTTL)
	require.Equal(t, 15*time.Second, cfg.HousekeepingInterval)
	require.Equal(t, 5, cfg.RateLimits.Strict.RequestsPerWindow)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("STATUS_STORE", "redis")
	t.Setenv("STATUS_BUS", "nats")
	t.Setenv("PRESENCE_LEASE_TTL", "30")
	t.Setenv("STRANGER_TOKEN_TTL", "15m")
	t.Setenv("HOUSEKEEPING_INTERVAL", "not-a-duration")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "50")

	cfg := LoadConfig()
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverRedis, cfg.StatusStore)
	require.Equal(t, DriverNATS, cfg.StatusBus)
	require.Equal(t, 30*time.Second, cfg.LeaseTTL)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.Equal(t, 15*time.Second, cfg.HousekeepingInterval)
	require.Equal(t, 50, cfg.RateLimits.Strict.RequestsPerWindow)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := LoadConfig()
	cfg.DatabaseFile = filepath.Join(dir, "stranger.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.SigningKeyFile = filepath.Join(dir, "signing.pem")
	cfg.ShutdownGracePeriod = 2 * time.Second
	return cfg
}

func TestApplicationServesAndShutsDown(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)
	app.Start()

	srv := httptest.NewServer(app.Handler())
	client := strangersdk.NewClient(srv.URL)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	kid := jwks.Keys[0].Kid

	srv.Close()
	require.NoError(t, app.Shutdown())

	// The key file pins the kid across restarts.
	app, err = New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })
	require.Equal(t, kid, app.keys.PublicJWKS().Keys[0].Kid)
}

func TestNewRejectsUnknownDrivers(t *testing.T) {
	cfg := testConfig(t)
	cfg.StatusStore = "etcd"
	_, err := New(cfg, WithLogger(slogx.Discard()))
	require.ErrorContains(t, err, "unknown status store")

	cfg.StatusStore = DriverMemory
	cfg.StatusBus = "kafka"
	_, err = New(cfg, WithLogger(slogx.Discard()))
	require.ErrorContains(t, err, "unknown status bus")
}
