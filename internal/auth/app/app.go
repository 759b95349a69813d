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

	httpapi "github.com/ergrato-dev/acc-lms-sub001/internal/auth/http"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/service"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store/drivers/postgres"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store/drivers/sqlite"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/cryptox"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/redisx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	redis    *redis.Client // only with the redis revocation backend
	denyList revoke.Store
	sweeper  service.Sweeper // only with the memory revocation backend
	checker  *revoke.Checker
	issuer   *jwtx.Issuer
	verifier *jwtx.Verifier

	// Services
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService
	housekeepingRunning bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Any configuration problem is reported here, before a listener is opened.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initRevocations(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeBackends()
		return nil, err
	}
	if err := app.bootstrapAdmin(ctx); err != nil {
		app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the root handler, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"revocations", app.cfg.RevocationBackend,
		"revocation_policy", app.cfg.RevocationPolicy.String(),
	)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, postgres.DefaultPoolConfig())
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRevocations picks the deny list backend and wraps it in a Checker.
func (app *Application) initRevocations(ctx context.Context) error {
	switch app.cfg.RevocationBackend {
	case BackendRedis:
		client, err := redisx.Connect(ctx, app.cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = client
		app.denyList = revoke.NewRedis(client, revoke.DefaultKeyPrefix)
	case BackendMemory:
		mem := revoke.NewMemory()
		app.denyList = mem
		app.sweeper = mem
		app.logger.Warn("in-memory revocation list: revocations are lost on restart and not shared between instances")
	default:
		app.denyList = app.db.Revocations()
	}

	app.checker = &revoke.Checker{
		Store:   app.denyList,
		Timeout: app.cfg.RevocationTimeout,
		Policy:  app.cfg.RevocationPolicy,
		OnError: func(ctx context.Context, jti string, err error) {
			slogx.FromContext(ctx).Warn("revocation lookup failed",
				"jti", jti,
				"policy", app.cfg.RevocationPolicy.String(),
				"error", err,
			)
		},
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	issuer, err := jwtx.NewIssuer(app.cfg.Token)
	if err != nil {
		return err
	}
	verifier, err := jwtx.NewVerifier(app.cfg.Token)
	if err != nil {
		return err
	}
	app.issuer = issuer
	app.verifier = verifier

	app.authService = &service.AuthService{
		Store:       app.db,
		Issuer:      issuer,
		Verifier:    verifier,
		Revocations: app.checker,
		Hasher:      cryptox.NewHasher(app.cfg.Pepper),
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.sweeper,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// bootstrapAdmin creates the first admin when AUTH_BOOTSTRAP_ADMIN_EMAIL is
// set. A generated password is logged exactly once.
func (app *Application) bootstrapAdmin(ctx context.Context) error {
	if app.cfg.BootstrapAdminEmail == "" {
		return nil
	}

	ctx = slogx.WithContext(ctx, app.logger)
	password, err := app.authService.EnsureAdmin(ctx, app.cfg.BootstrapAdminEmail)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if password != "" {
		app.logger.Warn("bootstrap admin created, change this password",
			"email", app.cfg.BootstrapAdminEmail,
			"password", password,
		)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	authn := &httpx.Authenticator{
		Verifier:    app.verifier,
		Revocations: app.checker,
	}

	router := httpapi.NewRouter(authn, app.cfg.RateLimits, BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.RevocationStore = app.denyList
	router.SecureCookies = app.cfg.Env != "dev"
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
