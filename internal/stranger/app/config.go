package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/stranger/internal/stranger/realtime"
	"github.com/aussiebroadwan/stranger/internal/stranger/service"
	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
)

// Status store and bus drivers.
const (
	DriverMemory = "memory"
	DriverLocal  = "local"
	DriverRedis  = "redis"
	DriverNATS   = "nats"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	Issuer         string        // Issuer claim for tokens (default: stranger)
	DatabaseFile   string        // SQLite accounts database (default: ./stranger.db)
	PepperFile     string        // Pepper for password hashing (default: ./pepper)
	SigningKeyFile string        // Ed25519 PKCS8 PEM; a fresh key per start when empty
	TokenTTL       time.Duration // Access token lifetime (default: 1h)
	VerifyPeriod   time.Duration // Verification code window (default: 10m)

	StatusStore string // memory or redis (default: memory)
	StatusBus   string // local, redis or nats (default: local)
	RedisURL    string // Used by the redis store and bus
	NATSURL     string // Used by the nats bus

	LeaseTTL             time.Duration // Disconnect-lease lifetime (default: 45s)
	HousekeepingInterval time.Duration // Expired lease sweep interval (default: 15s)

	RateLimits httpx.RateLimits
}

// LoadConfig reads the environment, after loading .env when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		Issuer:         getEnvOrDefault("STRANGER_ISSUER", "stranger"),
		DatabaseFile:   getEnvOrDefault("STRANGER_DATABASE_FILE", "stranger.db"),
		PepperFile:     getEnvOrDefault("STRANGER_PEPPER_FILE", "pepper"),
		SigningKeyFile: os.Getenv("STRANGER_SIGNING_KEY_FILE"),
		TokenTTL:       getEnvDurationOrDefault("STRANGER_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		VerifyPeriod:   getEnvDurationOrDefault("STRANGER_VERIFY_PERIOD", service.DefaultVerifyPeriod),

		StatusStore: getEnvOrDefault("STATUS_STORE", DriverMemory),
		StatusBus:   getEnvOrDefault("STATUS_BUS", DriverLocal),
		RedisURL:    getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:     getEnvOrDefault("NATS_URL", "nats://127.0.0.1:4222"),

		LeaseTTL:             getEnvDurationOrDefault("PRESENCE_LEASE_TTL", realtime.DefaultLeaseTTL),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", service.DefaultHousekeepingInterval),

		RateLimits: httpx.RateLimitsFromEnv(os.Getenv),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
