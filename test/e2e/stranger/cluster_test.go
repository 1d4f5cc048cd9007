package stranger_test

import (
	"testing"

	"github.com/aussiebroadwan/stranger/internal/stranger/app"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

// testCluster runs two instances that share accounts, a redis status store
// and the given bus, and checks that presence crosses between them.
func testCluster(t *testing.T, configure func(cfg *app.Config)) {
	redisAddr := startContainer(t, "redis:7-alpine", "6379", "Ready to accept connections")

	dir := t.TempDir()
	mail := newMailbox()
	cfg := baseConfig(dir)
	cfg.StatusStore = app.DriverRedis
	cfg.RedisURL = "redis://" + redisAddr + "/0"
	configure(&cfg)

	east := strangersdk.NewClient(startInstance(t, cfg, mail))
	west := strangersdk.NewClient(startInstance(t, cfg, mail))

	neo := signUp(t, east, mail, "neo@example.com", "neo")
	trinity := signUp(t, west, mail, "trinity@example.com", "trinity")

	neoPresence, _ := goOnline(t, neo)
	trinityPresence, trinityConn := goOnline(t, trinity)

	requireNames(t, neoPresence, "neo", "trinity")
	requireNames(t, trinityPresence, "neo", "trinity")
	requireServerNames(t, neo, "neo", "trinity")
	requireServerNames(t, trinity, "neo", "trinity")

	trinityConn.Close()
	requireNames(t, neoPresence, "neo")
	requireServerNames(t, neo, "neo")
}

func TestClusterOverRedisPubSub(t *testing.T) {
	testCluster(t, func(cfg *app.Config) {
		cfg.StatusBus = app.DriverRedis
	})
}

func TestClusterOverNATS(t *testing.T) {
	testCluster(t, func(cfg *app.Config) {
		natsAddr := startContainer(t, "nats:2-alpine", "4222", "Server is ready")
		cfg.StatusBus = app.DriverNATS
		cfg.NATSURL = "nats://" + natsAddr
	})
}
