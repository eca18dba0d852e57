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

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/expo/internal/team/http"
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/notify"
	"github.com/aussiebroadwan/expo/internal/team/otpstore"
	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/internal/team/store/drivers/sqlite"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = "team-service"
)

// Application wires the team service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager
	codes      otpstore.Store
	notifier   notify.Notifier
	registry   *prometheus.Registry
	metrics    *metrics.Metrics

	// Only set when redis backs the otp store or the mail queue.
	redisClient *redis.Client
	queueClient *asynq.Client

	activationService   *service.ActivationService
	authService         *service.AuthService
	tokenService        *service.TokenService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		NumKeys:   cfg.NumKeys,
	})
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager
	app.logger.Info("signing keys generated",
		slog.String("algorithm", keyManager.Algorithm()),
		slog.Int("num_keys", keyManager.NumSigners()),
	)

	app.initOTPStore()
	if err := app.initNotifier(); err != nil {
		app.closeAll()
		return nil, err
	}
	app.initMetrics()
	app.initServices()
	if err := app.initHTTP(); err != nil {
		app.closeAll()
		return nil, err
	}

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("team service starting", slog.Int("port", app.cfg.Port), slog.String("version", BuildVersion))

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeAll()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server, stops housekeeping and closes the
// backing stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down team service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("team service stopped")
	return nil
}

func (app *Application) closeAll() error {
	var errs []error
	if app.queueClient != nil {
		if err := app.queueClient.Close(); err != nil {
			app.logger.Error("error closing queue client", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	if app.cfg.DatabaseFile == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initOTPStore() {
	if app.cfg.OTPStore != OTPStoreRedis {
		app.codes = otpstore.NewMemory(nil)
		return
	}

	app.redisClient = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})
	app.codes = otpstore.NewRedis(app.redisClient, "")
	app.logger.Info("otp store backed by redis", slog.String("addr", app.cfg.RedisAddr))
}

func (app *Application) initNotifier() error {
	switch app.cfg.Notifier {
	case NotifierSMTP:
		n, err := notify.NewSMTPNotifier(app.cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to initialize smtp notifier: %w", err)
		}
		app.notifier = n
	case NotifierQueue:
		app.queueClient = asynq.NewClient(notify.RedisConnOpt(app.cfg.RedisAddr, app.cfg.RedisPassword))
		app.notifier = notify.NewQueueNotifier(app.queueClient)
	default:
		app.notifier = notify.LogNotifier{IncludeBody: app.cfg.Env == "dev"}
	}
	app.logger.Info("notifier configured", slog.String("notifier", app.cfg.Notifier))
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry, metrics.Config{Service: serviceName, Env: app.cfg.Env})
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Store:      app.db,
		Metrics:    app.metrics,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.authService = &service.AuthService{
		Store:   app.db,
		Tokens:  app.tokenService,
		Metrics: app.metrics,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:   app.db,
		Token:   app.cfg.BootstrapToken,
		Metrics: app.metrics,
	}
	app.activationService = &service.ActivationService{
		Store:       app.db,
		Tokens:      &service.SetupTokenIssuer{Window: app.cfg.SetupTokenTTL},
		OTP:         &service.OTPService{Store: app.codes, TTL: app.cfg.OTPTTL},
		Notifier:    app.notifier,
		Metrics:     app.metrics,
		FrontendURL: app.cfg.FrontendURL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.SetupTokenTTL,
		app.cfg.SetupTokenRetention,
	)
	app.housekeepingService.Metrics = app.metrics
}

func (app *Application) initHTTP() error {
	clientIP, err := httpx.NewClientIP(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.codes,
		app.metrics,
		app.registry,
		app.logger,
	)

	router.Limits = app.cfg.RateLimits
	router.ClientIP = clientIP
	router.ActivationService = app.activationService
	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.BootstrapService = app.bootstrapService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
