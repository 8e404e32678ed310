package main

//go:generate swag init --v3.1 -g cmd/server/main.go -d ../../ -o ../../docs --parseDependency --parseInternal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/erp/ordertocash/internal/application/audit"
	financeapp "github.com/erp/ordertocash/internal/application/finance"
	inventoryapp "github.com/erp/ordertocash/internal/application/inventory"
	"github.com/erp/ordertocash/internal/application/notification"
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/audit"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/infrastructure/auth"
	"github.com/erp/ordertocash/internal/infrastructure/cache"
	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/erp/ordertocash/internal/infrastructure/event"
	"github.com/erp/ordertocash/internal/infrastructure/lock"
	"github.com/erp/ordertocash/internal/infrastructure/logger"
	"github.com/erp/ordertocash/internal/infrastructure/metrics"
	"github.com/erp/ordertocash/internal/infrastructure/notify"
	"github.com/erp/ordertocash/internal/infrastructure/persistence"
	"github.com/erp/ordertocash/internal/infrastructure/scheduler"
	"github.com/erp/ordertocash/internal/infrastructure/storage"
	"github.com/erp/ordertocash/internal/infrastructure/telemetry"
	"github.com/erp/ordertocash/internal/interfaces/http/handler"
	"github.com/erp/ordertocash/internal/interfaces/http/middleware"
	"github.com/erp/ordertocash/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	_ "github.com/erp/ordertocash/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Order-to-Cash API
//	@version		1.0
//	@description	Quotations, sales orders, shipments, invoices, payments and the stock ledger behind them

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		LogExportEnabled:  cfg.Telemetry.LogExportEnabled,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.WrapLogger(baseLog)
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting order-to-cash service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		SpanProfiles:    cfg.Telemetry.Enabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Database
	var plugins []gorm.Plugin
	if p := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:   cfg.Database.Driver,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}); p != nil {
		plugins = append(plugins, p)
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))),
		persistence.WithPlugins(plugins...),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema auto-migrated", zap.String("driver", cfg.Database.Driver))
	}
	log.Info("Database connected successfully")

	// Redis is optional: without it locks, claims and notifications stay in process
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var claims shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		claims = cache.NewIdempotencyStore(redisClient, log)
	}
	locker := lock.New(cfg.Lock, redisClient, log)

	// Metrics
	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	schedulerMetrics := metrics.NewSchedulerMetrics(registry)
	conversionMetrics := metrics.NewConversionMetrics(registry)
	businessMetrics, err := telemetry.NewBusinessMetrics(providers.Meter())
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	// Event bus and its subscribers
	eventBus := event.NewInMemoryEventBus(log)
	subscribeHandlers(eventBus, cfg, db.DB, redisClient, claims, businessMetrics, log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	uow := txn.NewUnitOfWork(persistence.NewGormTransactionScope(db.DB), locker, eventBus, log)
	poster := financeapp.NewPostingService(chartOfAccounts(cfg.Accounting), log)
	ledger := inventoryapp.NewLedger(poster)
	tracker := tradeapp.NewFulfillmentTracker()

	quotationService := tradeapp.NewQuotationService(uow, log)
	conversionService := tradeapp.NewConversionService(uow, claims, tracker, log)
	conversionService.SetObserver(conversionObservers{conversionMetrics, businessMetrics})
	salesOrderService := tradeapp.NewSalesOrderService(uow, ledger, tracker, log)
	shipmentService := tradeapp.NewShipmentService(uow, ledger, tracker, log)
	invoiceService := tradeapp.NewInvoiceService(uow, poster, tracker, log)
	paymentService := tradeapp.NewPaymentService(uow, poster, tracker, log)
	pricingService := tradeapp.NewPricingService()
	inventoryService := inventoryapp.NewInventoryService(uow, ledger, log)
	journalService := financeapp.NewJournalService(uow)
	expiryService := tradeapp.NewQuotationExpiryService(uow, cfg.Scheduler.ExpiryBatch, log)

	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(log, schedulerMetrics)
		if err := jobs.Register(scheduler.QuotationExpiryJob(expiryService,
			cfg.Scheduler.ExpiryInterval, cfg.Scheduler.JobTimeout, schedulerMetrics)); err != nil {
			log.Fatal("Failed to register quotation expiry job", zap.Error(err))
		}
		jobs.Start(ctx)
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.Duration("expiry_interval", cfg.Scheduler.ExpiryInterval),
			zap.Int("expiry_batch", cfg.Scheduler.ExpiryBatch),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		rateLimiter.StartCleanup()
		defer rateLimiter.Stop()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine, err := router.New(router.Deps{
		Config:      cfg,
		Logger:      log,
		JWT:         auth.NewJWTService(cfg.JWT),
		Registry:    registry,
		HTTPMetrics: httpMetrics,
		RateLimiter: rateLimiter,
		Handlers: router.Handlers{
			Quotations:  handler.NewQuotationHandler(quotationService, conversionService),
			SalesOrders: handler.NewSalesOrderHandler(salesOrderService, shipmentService, conversionService),
			Shipments:   handler.NewShipmentHandler(shipmentService),
			Invoices:    handler.NewInvoiceHandler(invoiceService, paymentService),
			Payments:    handler.NewPaymentHandler(paymentService),
			Pricing:     handler.NewPricingHandler(pricingService),
			Inventory:   handler.NewInventoryHandler(inventoryService),
			Journal:     handler.NewJournalHandler(journalService),
			System:      handler.NewSystemHandler(cfg.App.Name, version, checks),
		},
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

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
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// subscribeHandlers wires the cross-cutting consumers of domain events
func subscribeHandlers(
	bus *event.InMemoryEventBus,
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	claims shared.IdempotencyStore,
	business *telemetry.BusinessMetrics,
	log *zap.Logger,
) {
	bus.Subscribe(business)

	if cfg.Audit.Enabled {
		sinks := []audit.Sink{persistence.NewGormAuditLogRepository(db)}
		if cfg.Audit.S3Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			client, err := storage.NewS3Client(ctx, cfg.Audit)
			if err != nil {
				log.Fatal("Failed to create S3 client", zap.Error(err))
			}
			if err := storage.EnsureBucket(ctx, client, cfg.Audit.S3Bucket, log); err != nil {
				log.Fatal("Failed to prepare audit bucket", zap.Error(err))
			}
			sinks = append(sinks, storage.NewAuditArchive(client, cfg.Audit.S3Bucket, cfg.Audit.S3Prefix, log))
		}
		bus.Subscribe(auditapp.NewAuditHandler(log, sinks...))
		log.Info("Audit trail enabled", zap.Int("sinks", len(sinks)))
	}

	sender := notify.New(redisClient, cfg.Notification.Channel, log)
	bus.Subscribe(inventoryapp.NewStockBelowMinimumHandler(sender, log))

	if cfg.Notification.Enabled {
		lang, err := language.Parse(cfg.Notification.Language)
		if err != nil {
			log.Warn("Unknown notification language, using English",
				zap.String("language", cfg.Notification.Language), zap.Error(err))
			lang = language.English
		}
		var h shared.EventHandler = notification.NewNotificationHandler(sender, lang, log)
		if claims != nil {
			h = event.NewIdempotentHandler(h, claims, shared.IdempotencyConfig{
				Enabled: true,
				TTL:     24 * time.Hour,
			}, log)
		}
		bus.Subscribe(h)
	}

	if redisClient != nil {
		bus.Subscribe(event.NewRedisRelay(redisClient, "", log))
	}
}

func chartOfAccounts(a config.AccountingConfig) finance.ChartOfAccounts {
	return finance.ChartOfAccounts{
		Cash:                 a.Cash,
		AccountsReceivable:   a.Receivable,
		Inventory:            a.Inventory,
		AccountsPayable:      a.Payable,
		TaxPayable:           a.TaxPayable,
		OpeningEquity:        a.OpeningEquity,
		Revenue:              a.Revenue,
		CostOfGoodsSold:      a.CostOfGoodsSold,
		InventoryAdjustments: a.InventoryAdjusts,
	}
}

// conversionObservers fans a conversion outcome out to every observer
type conversionObservers []tradeapp.ConversionObserver

func (o conversionObservers) ObserveConversion(kind, outcome string) {
	for _, obs := range o {
		obs.ObserveConversion(kind, outcome)
	}
}
