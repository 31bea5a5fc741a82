// Package bootstrap builds the billing service graph shared by the server and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	catalogapp "github.com/erp/billing/internal/application/catalog"
	financeapp "github.com/erp/billing/internal/application/finance"
	inventoryapp "github.com/erp/billing/internal/application/inventory"
	partnerapp "github.com/erp/billing/internal/application/partner"
	printingapp "github.com/erp/billing/internal/application/printing"
	tradeapp "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/event"
	"github.com/erp/billing/internal/infrastructure/locking"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/infrastructure/printing"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the wired services. Close releases everything New opened.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *persistence.Database
	Redis  redis.UniversalClient // nil unless a component is configured for redis
	Locker shared.Locker
	Bus    *event.InMemoryEventBus

	Tracer   *telemetry.TracerProvider
	Meter    *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider
	Profiler *telemetry.Profiler

	Clients       *partnerapp.ClientService
	Products      *catalogapp.ProductService
	Offers        *tradeapp.OfferService
	Invoices      *tradeapp.InvoiceService
	DeliveryNotes *tradeapp.DeliveryNoteService
	Conversion    *tradeapp.ConversionService
	Dunning       *financeapp.DunningService
	Ledger        *inventoryapp.LedgerService
	Print         *printingapp.PrintService
	SweepJob      *financeapp.SweepJob

	closers []func(context.Context) error
}

// New connects to the configured backends and wires every service
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log}
	if err := app.init(ctx); err != nil {
		_ = app.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.Config, a.Logger

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.Tracer = tracer
	a.closers = append(a.closers, tracer.Shutdown)

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             cfg.Telemetry.LogsLevel,
	}, log)
	if err != nil {
		return fmt.Errorf("init log export: %w", err)
	}
	a.Logs = logs
	a.closers = append(a.closers, logs.Shutdown)
	log = logs.Bridge(log)
	a.Logger = log

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		Environment:       cfg.App.Env,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		return fmt.Errorf("init profiling: %w", err)
	}
	a.Profiler = profiler
	a.closers = append(a.closers, func(context.Context) error { return profiler.Stop() })
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tracer.EnableSpanProfiles()
	}

	meter, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	a.Meter = meter
	a.closers = append(a.closers, meter.Shutdown)

	db, err := persistence.NewDatabaseWithZap(&cfg.Database, log, cfg.Log.Level,
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))
	if err != nil {
		return err
	}
	a.DB = db
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		return fmt.Errorf("init database tracing: %w", err)
	}

	if needsRedis(cfg) {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.Redis = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	}

	// Advisory locks pin a connection while held; they use a dedicated pool.
	var lockDB *sql.DB
	if cfg.Numbering.LockBackend == config.LockBackendPostgres {
		if lockDB, err = locking.OpenPostgresPool(cfg.Database.DSN(), cfg.Numbering.LockPoolSize); err != nil {
			return fmt.Errorf("open lock pool: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return lockDB.Close() })
	}
	if a.Locker, err = locking.New(cfg.Numbering, lockDB, a.Redis); err != nil {
		return fmt.Errorf("init document number lock: %w", err)
	}

	metrics, err := telemetry.NewBillingMetrics(meter.Meter("billing"))
	if err != nil {
		return err
	}

	return a.wire(db.DB, metrics)
}

func (a *App) wire(db *gorm.DB, metrics *telemetry.BillingMetrics) error {
	cfg, log := a.Config, a.Logger

	clientRepo := persistence.NewGormClientRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	offerRepo := persistence.NewGormOfferRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	noteRepo := persistence.NewGormDeliveryNoteRepository(db)
	recordRepo := persistence.NewGormDunningRecordRepository(db)
	movementRepo := persistence.NewGormMovementRepository(db)
	txScope := persistence.NewGormTransactionScope(db)

	a.Bus = event.NewInMemoryEventBus(log.Named("bus"))
	a.Bus.Subscribe(event.NewJournal(event.NewDefaultSerializer(), log))
	a.Bus.Subscribe(financeapp.NewDunningNotificationHandler(recordRepo, financeapp.NewLogNotifier(log), log))

	allocator := tradeapp.NewSequenceAllocator(a.Locker, persistence.NewGormNumberCounter(db), tradeapp.AllocatorOptions{
		LockWait:      cfg.Numbering.LockWait,
		FailurePolicy: tradeapp.LockFailurePolicy(cfg.Numbering.LockFailurePolicy),
	}, log)
	allocator.SetMetrics(metrics)

	tax := trade.NewTaxModeResolver(valueobject.CountryCode(cfg.Tax.HomeCountry), cfg.Tax.StandardRate)
	paymentTerm := cfg.Invoice.PaymentTermDays

	a.Clients = partnerapp.NewClientService(clientRepo)
	a.Clients.SetEventPublisher(a.Bus)
	a.Products = catalogapp.NewProductService(productRepo)
	a.Products.SetEventPublisher(a.Bus)

	a.Offers = tradeapp.NewOfferService(offerRepo, clientRepo, productRepo, txScope.Trade(), allocator, tax, log)
	a.Offers.SetEventPublisher(a.Bus)

	a.Invoices = tradeapp.NewInvoiceService(invoiceRepo, clientRepo, productRepo, txScope.Trade(), allocator, tax, paymentTerm, log)
	a.Invoices.SetEventPublisher(a.Bus)
	a.Invoices.SetMetrics(metrics)

	a.DeliveryNotes = tradeapp.NewDeliveryNoteService(noteRepo, invoiceRepo, clientRepo, productRepo, txScope.Trade(), allocator, log)
	a.DeliveryNotes.SetEventPublisher(a.Bus)
	a.DeliveryNotes.SetMetrics(metrics)

	a.Conversion = tradeapp.NewConversionService(offerRepo, txScope.Trade(), allocator, paymentTerm, log)
	a.Conversion.SetEventPublisher(a.Bus)
	a.Conversion.SetMetrics(metrics)

	dunning, err := financeapp.NewDunningService(invoiceRepo, recordRepo, txScope.Finance(), cfg.Dunning.Policy(), log)
	if err != nil {
		return fmt.Errorf("dunning policy: %w", err)
	}
	dunning.SetEventPublisher(a.Bus)
	dunning.SetMetrics(metrics)
	a.Dunning = dunning
	a.SweepJob = financeapp.NewSweepJob(dunning, a.Locker, log)

	a.Ledger = inventoryapp.NewLedgerService(movementRepo, productRepo, txScope.Inventory(), log)
	a.Ledger.SetMetrics(metrics)

	renderer := printing.NewPDFRenderer(printing.Letterhead{
		CompanyName: cfg.Company.Name,
		AddressLine: cfg.Company.AddressLine,
		VATNumber:   cfg.Company.VATNumber,
		IBAN:        cfg.Company.IBAN,
		Footer:      cfg.Company.Footer,
	})
	a.Print = printingapp.NewPrintService(offerRepo, invoiceRepo, noteRepo, recordRepo, renderer, log)
	return nil
}

// Close shuts down in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Numbering.LockBackend == config.LockBackendRedis ||
		(cfg.Idempotency.Enabled && cfg.Idempotency.Backend == "redis")
}
