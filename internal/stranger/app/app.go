package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/stranger/internal/stranger/http"
	"github.com/aussiebroadwan/stranger/internal/stranger/realtime"
	"github.com/aussiebroadwan/stranger/internal/stranger/realtime/bus"
	"github.com/aussiebroadwan/stranger/internal/stranger/realtime/statusstore"
	"github.com/aussiebroadwan/stranger/internal/stranger/service"
	"github.com/aussiebroadwan/stranger/internal/stranger/store/drivers/sqlite"
	"github.com/aussiebroadwan/stranger/pkg/cryptox"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the stranger server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger
	mailer service.Mailer

	db       *sqlite.Store
	signer   *jwtx.EdDSASigner
	keys     *jwtx.KeySet
	statuses statusstore.Store
	changes  bus.Bus

	hub    *realtime.Hub
	local  *realtime.LocalBackend
	online *presence.Aggregator

	accountService      *service.AccountService
	verificationService *service.VerificationService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// Option adjusts an Application before it is wired.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) { a.logger = l }
}

// WithMailer replaces the default LogMailer.
func WithMailer(m service.Mailer) Option {
	return func(a *Application) { a.mailer = m }
}

// New wires every dependency and starts the realtime hub. The HTTP server
// and housekeeping start with Start or Run.
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "stranger",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}
	if app.mailer == nil {
		app.mailer = service.LogMailer{Logger: app.logger}
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, keys, err := InitSigningKey(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.signer, app.keys = signer, keys

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initRealtime(context.Background()); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler returns the HTTP handler serving every route.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Start begins background housekeeping.
func (app *Application) Start() {
	app.housekeepingService.Start()
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("stranger starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, settles every local connection to
// offline and closes the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down stranger...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Websockets are hijacked, so the server does not wait for them.
	if err := app.hub.Close(ctx); err != nil {
		app.logger.Error("realtime hub did not drain", "error", err)
	}
	app.online.Close()
	app.local.Close()

	app.housekeepingService.Stop()

	return app.closeStores()
}

func (app *Application) closeStores() error {
	var errs []error
	if app.changes != nil {
		errs = append(errs, app.changes.Close())
	}
	if app.statuses != nil {
		errs = append(errs, app.statuses.Close())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	app.logger.Info("stranger stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.verificationService = &service.VerificationService{
		Store:  app.db,
		Mailer: app.mailer,
		Issuer: app.cfg.Issuer,
		Period: app.cfg.VerifyPeriod,
	}
	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: cryptox.NewPasswordHasher(pepper),
		Tokens: &service.TokenService{
			Signer: app.signer,
			Issuer: app.cfg.Issuer,
			TTL:    app.cfg.TokenTTL,
		},
		Verification: app.verificationService,
	}
	return nil
}

// initRealtime opens the configured status store and bus, then starts the
// hub and the server's own view of the online list.
func (app *Application) initRealtime(ctx context.Context) error {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch app.cfg.StatusStore {
	case DriverRedis:
		st, err := statusstore.OpenRedis(openCtx, app.cfg.RedisURL, statusstore.DefaultRedisPrefix)
		if err != nil {
			return fmt.Errorf("failed to open redis status store: %w", err)
		}
		app.statuses = st
	case DriverMemory, "":
		app.statuses = statusstore.NewMemory()
	default:
		return fmt.Errorf("unknown status store %q", app.cfg.StatusStore)
	}

	switch app.cfg.StatusBus {
	case DriverRedis:
		b, err := bus.OpenRedis(openCtx, app.cfg.RedisURL, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open redis bus: %w", err)
		}
		app.changes = b
	case DriverNATS:
		b, err := bus.OpenNATS(app.cfg.NATSURL, "stranger", app.logger)
		if err != nil {
			return fmt.Errorf("failed to open nats bus: %w", err)
		}
		app.changes = b
	case DriverLocal, "":
		app.changes = bus.NewLocal()
	default:
		return fmt.Errorf("unknown status bus %q", app.cfg.StatusBus)
	}

	if app.cfg.StatusStore == DriverMemory && app.cfg.StatusBus != DriverLocal && app.cfg.StatusBus != "" {
		app.logger.Warn("shared bus with a memory status store; instances will disagree on snapshots")
	}

	app.hub = realtime.NewHub(realtime.Config{
		Store:    app.statuses,
		Bus:      app.changes,
		Logger:   app.logger,
		LeaseTTL: app.cfg.LeaseTTL,
	})
	if err := app.hub.Start(ctx); err != nil {
		return err
	}

	app.local = realtime.NewLocalBackend(app.hub)
	app.online = presence.Aggregate(app.local, app.logger)

	app.housekeepingService = service.NewHousekeepingService(
		app.hub,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	app.logger.Info("realtime backend ready",
		"status_store", app.cfg.StatusStore,
		"status_bus", app.cfg.StatusBus,
		"lease_ttl", app.cfg.LeaseTTL,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, nil),
		BuildVersion,
		app.cfg.RateLimits,
		app.logger,
	)

	router.Database = app.db
	router.StatusStore = app.hub
	router.AccountService = app.accountService
	router.VerificationService = app.verificationService
	router.Online = app.online
	router.Realtime = app.hub
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
