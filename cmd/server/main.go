package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/billing/internal/bootstrap"
	"github.com/erp/billing/internal/infrastructure/cache"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

//	@title			Billing API
//	@version		1.0
//	@description	Offers, invoices, delivery notes, stock ledger and dunning for a small trading business

//	@host		localhost:8080
//	@BasePath	/api/v1

var version = "dev"

func main() {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting billing server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	log = app.Logger
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	if err := app.Bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = app.Bus.Stop(context.Background())
	}()

	stopScheduler := startScheduler(ctx, app, log)
	defer stopScheduler()

	idempotency, closeIdempotency := idempotencyGuard(ctx, app, log)
	defer closeIdempotency()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		middleware.HTTPMetrics(),
		middleware.Profiling(cfg.Profiling.Enabled),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, healthChecks(app))
	engine.GET("/health", systemHandler.Health)

	offers := router.NewDomainGroup("offers", "/offers")
	handler.NewOfferHandler(app.Offers, app.Print).Mount(offers)
	handler.NewConversionHandler(app.Conversion, idempotency...).Mount(offers)

	router.NewRouter(engine, router.WithAPIVersion("v1")).Register(
		router.NewDomainGroup("system", "/system").GET("/info", systemHandler.GetSystemInfo),
		handler.NewClientHandler(app.Clients).Routes(),
		handler.NewProductHandler(app.Products).Routes(),
		offers,
		handler.NewInvoiceHandler(app.Invoices, app.Dunning, app.Print).Routes(),
		handler.NewDeliveryNoteHandler(app.DeliveryNotes, app.Print).Routes(),
		handler.NewDunningHandler(app.SweepJob, app.Dunning, app.Print).Routes(),
		handler.NewInventoryHandler(app.Ledger).Routes(),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// startScheduler runs the daily dunning sweep when enabled and returns its stop function
func startScheduler(ctx context.Context, app *bootstrap.App, log *zap.Logger) func() {
	cfg := app.Config.Scheduler
	if !cfg.Enabled {
		log.Info("Dunning scheduler disabled")
		return func() {}
	}

	sched, err := scheduler.NewScheduler(scheduler.SchedulerConfigFrom(cfg), log)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	sched.Register(scheduler.JobKindDunningSweep, app.SweepJob)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfigFrom(cfg), sched, scheduler.JobKindDunningSweep, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start dunning trigger", zap.Error(err))
	}
	log.Info("Dunning scheduler started",
		zap.Int("sweep_hour", cfg.SweepHour),
		zap.Int("sweep_minute", cfg.SweepMinute))

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping dunning trigger", zap.Error(err))
		}
		if err := sched.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
}

// idempotencyGuard returns the middleware for conversion routes, or nothing when disabled
func idempotencyGuard(ctx context.Context, app *bootstrap.App, log *zap.Logger) ([]gin.HandlerFunc, func()) {
	cfg := app.Config.Idempotency
	if !cfg.Enabled {
		return nil, func() {}
	}

	store, err := cache.NewIdempotencyStoreFactory(cfg, app.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	closeStore := func() {}
	if closer, ok := store.(interface{ Close() error }); ok {
		closeStore = func() { _ = closer.Close() }
	}

	guard := middleware.Idempotency(middleware.IdempotencyConfig{Store: store, TTL: cfg.TTL, Logger: log})
	return []gin.HandlerFunc{guard}, closeStore
}

func healthChecks(app *bootstrap.App) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": app.DB}
	if app.Redis != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}
	return checks
}
