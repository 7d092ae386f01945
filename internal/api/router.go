package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/datalumen/lumen/internal/alert"
	"github.com/datalumen/lumen/internal/analytics"
	"github.com/datalumen/lumen/internal/api/docs"
	"github.com/datalumen/lumen/internal/api/handler"
	"github.com/datalumen/lumen/internal/api/middleware"
	"github.com/datalumen/lumen/internal/cache"
	"github.com/datalumen/lumen/internal/config"
	"github.com/datalumen/lumen/internal/metric"
	"github.com/datalumen/lumen/internal/report"
)

type Dependencies struct {
	DB     *pgxpool.Pool
	Config *config.Config
}

type Router struct {
	app             *fiber.App
	logger          *slog.Logger
	deps            *Dependencies
	janitor         *cache.Janitor
	retentionWorker *metric.RetentionWorker
	reportWorker    *report.Worker
	alertWorker     *alert.Worker
	cancelWorkers   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Lumen Analytics API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var pool *pgxpool.Pool
	if r.deps != nil {
		pool = r.deps.DB
	}

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(pool)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Only configure data-backed routes if dependencies were provided
	if r.deps == nil {
		return
	}

	cfg := r.deps.Config
	registry := metric.DefaultRegistry()

	metricRepo := metric.NewRepository(pool)
	pgCache := cache.NewPGCache(pool)
	reportRepo := report.NewRepository(pool)
	alertRepo := alert.NewRepository(pool)

	engine := analytics.NewService(metricRepo, pgCache, registry, r.logger, analytics.Options{
		TimeSeriesTTL: cfg.TimeSeriesCacheTTL,
		KPITTL:        cfg.KPICacheTTL,
	})

	ingestHandler := handler.NewIngestHandler(metricRepo, registry, r.logger)
	analyticsHandler := handler.NewAnalyticsHandler(engine, r.logger)
	reportHandler := handler.NewReportHandler(reportRepo, registry, r.logger)
	alertHandler := handler.NewAlertHandler(alertRepo, registry, r.logger)

	v1 := r.app.Group("/v1")

	// Ingestion routes
	v1.Post("/metrics", ingestHandler.Create)
	v1.Post("/metrics/batch", ingestHandler.CreateBatch)

	// Analytics routes
	v1.Get("/analytics/timeseries", analyticsHandler.GetTimeSeries)
	v1.Get("/analytics/kpis", analyticsHandler.GetKPIs)

	// Report definition routes
	v1.Post("/reports", reportHandler.Create)
	v1.Get("/reports", reportHandler.List)
	v1.Get("/reports/:id", reportHandler.Get)
	v1.Delete("/reports/:id", reportHandler.Delete)

	// Alert rule routes
	v1.Post("/alerts", alertHandler.Create)
	v1.Get("/alerts", alertHandler.List)
	v1.Get("/alerts/:id", alertHandler.Get)
	v1.Delete("/alerts/:id", alertHandler.Delete)
	v1.Get("/alerts/:id/events", alertHandler.ListEvents)

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelWorkers = cancel

	r.janitor = cache.NewJanitor(pgCache, r.logger, cfg.CacheSweepEvery)
	go r.janitor.Start(ctx)

	r.retentionWorker = metric.NewRetentionWorker(metricRepo, r.logger, cfg.RetentionHorizon, cfg.RetentionInterval)
	go r.retentionWorker.Start(ctx)

	r.reportWorker = report.NewWorker(reportRepo, engine, report.LogSink{Logger: r.logger}, r.logger, cfg.ReportCheckEvery)
	go r.reportWorker.Start(ctx)

	alertEngine := alert.NewEngine(metricRepo, registry)
	r.alertWorker = alert.NewWorker(alertRepo, alertEngine, alert.LogNotifier{Logger: r.logger}, r.logger, cfg.AlertCheckEvery)
	go r.alertWorker.Start(ctx)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelWorkers != nil {
		r.cancelWorkers()
	}

	return r.app.Shutdown()
}
