package main

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tradehub/internal/handler"
	mid "tradehub/internal/middleware"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/service"
	"tradehub/pkg/config"
	"tradehub/pkg/database"
	"tradehub/pkg/jwtutil"
	"tradehub/pkg/logger"
	"tradehub/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("tradehub")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting tradehub tender service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(db,
		&model.TenderRecord{},
		&model.TenderTradeRequirement{},
		&model.Quote{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the engine: repositories behind interfaces, services on top.
	jwtUtil := jwtutil.NewJWTUtil(&appConfig.JWT)
	tenderRepo := repository.NewTenderRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	tenderService := service.NewTenderService(tenderRepo, quoteRepo, appConfig.Engine.DefaultRadiusKm)
	quoteService := service.NewQuoteService(tenderRepo, quoteRepo, appConfig.Engine.MonthlyFreeQuota)
	tenderHandler := handler.NewTenderHandler(tenderService)
	quoteHandler := handler.NewQuoteHandler(quoteService)

	// Initialize Echo instance
	e := echo.New()
	e.Validator = handler.NewRequestValidator()

	// Middleware
	e.Use(echomw.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.Health)

	// Tender API routes - anonymous browsing allowed, writes gated
	tenderAPI := e.Group("/api/tenders", mid.OptionalAuth(jwtUtil))
	tenderAPI.GET("", tenderHandler.List)
	tenderAPI.GET("/mine", tenderHandler.Mine, mid.RequireViewer)
	tenderAPI.GET("/:id", tenderHandler.Get)
	tenderAPI.POST("/:id/quotes", quoteHandler.Submit, mid.RequireViewer)

	// Quote API routes
	quoteAPI := e.Group("/api/quotes", mid.OptionalAuth(jwtUtil), mid.RequireViewer)
	quoteAPI.GET("/mine", quoteHandler.Mine)
	quoteAPI.PUT("/:id/withdraw", quoteHandler.WithdrawQuote)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
