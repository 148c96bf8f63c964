package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anc5557/ChartBeacon/internal/backtest"
	"github.com/anc5557/ChartBeacon/internal/client"
	"github.com/anc5557/ChartBeacon/internal/config"
	"github.com/anc5557/ChartBeacon/internal/handler"
	"github.com/anc5557/ChartBeacon/internal/middleware"
	"github.com/anc5557/ChartBeacon/internal/repository"
	"github.com/anc5557/ChartBeacon/internal/scheduler"
	"github.com/anc5557/ChartBeacon/internal/service"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	symbolRepo := repository.NewSymbolRepository(db, logger)
	candleRepo := repository.NewCandleRepository(db, logger)
	indicatorRepo := repository.NewIndicatorRepository(db, logger)
	movingAvgRepo := repository.NewMovingAvgRepository(db, logger)
	summaryRepo := repository.NewSummaryRepository(db, logger)
	alertRepo := repository.NewAlertRepository(db, logger)
	fillJobRepo := repository.NewFillJobRepository(db, logger)

	// Initialize clients
	yahooClient := client.NewYahooClient(logger)
	discordClient := client.NewDiscordClient(cfg.Discord.WebhookURL, logger)

	// Initialize services
	symbolService := service.NewSymbolService(symbolRepo, logger)
	analysisService := service.NewAnalysisService(
		candleRepo,
		indicatorRepo,
		movingAvgRepo,
		summaryRepo,
		logger,
	)
	alertService := service.NewAlertService(symbolRepo, alertRepo, discordClient, logger)
	dataFillService := service.NewDataFillService(
		symbolRepo,
		candleRepo,
		indicatorRepo,
		movingAvgRepo,
		summaryRepo,
		fillJobRepo,
		yahooClient,
		analysisService,
		alertService,
		cfg.DataFill.MaxRetries,
		logger,
	)
	marketDataService := service.NewMarketDataService(
		symbolRepo,
		candleRepo,
		indicatorRepo,
		movingAvgRepo,
		summaryRepo,
		logger,
	)
	backtestService := service.NewBacktestService(
		symbolRepo,
		candleRepo,
		indicatorRepo,
		summaryRepo,
		backtest.Config{
			TransactionCostRate: cfg.Backtest.TransactionCostRate,
			MaxPositionRatio:    cfg.Backtest.MaxPositionRatio,
			StopLossRatio:       cfg.Backtest.StopLossRatio,
			RiskFreeRate:        cfg.Backtest.RiskFreeRate,
		},
		logger,
	)

	// Initialize handlers
	symbolHandler := handler.NewSymbolHandler(symbolService, logger)
	marketDataHandler := handler.NewMarketDataHandler(marketDataService, logger)
	dataFillHandler := handler.NewDataFillHandler(dataFillService, logger)
	backtestHandler := handler.NewBacktestHandler(backtestService, logger)
	alertHandler := handler.NewAlertHandler(alertService, logger)

	// Start the background refresh loops
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(symbolService, dataFillService, logger)
		sched.Start(context.Background())
	}

	// Set up HTTP server with Gin
	router := setupRouter(
		symbolHandler,
		marketDataHandler,
		dataFillHandler,
		backtestHandler,
		alertHandler,
		logger,
		cfg,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	symbolHandler *handler.SymbolHandler,
	marketDataHandler *handler.MarketDataHandler,
	dataFillHandler *handler.DataFillHandler,
	backtestHandler *handler.BacktestHandler,
	alertHandler *handler.AlertHandler,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Symbol routes
		symbols := v1.Group("/symbols")
		{
			symbols.GET("", symbolHandler.GetAllSymbols)
			symbols.GET("/:ticker", symbolHandler.GetSymbol)
			symbols.POST("", symbolHandler.CreateSymbol)
			symbols.POST("/:ticker/activate", symbolHandler.ActivateSymbol)
			symbols.POST("/:ticker/deactivate", symbolHandler.DeactivateSymbol)
			symbols.DELETE("/:ticker", symbolHandler.DeleteSymbol)
		}

		// Market data routes
		v1.GET("/summary/:ticker", marketDataHandler.GetSummary)
		v1.GET("/summary/:ticker/history", marketDataHandler.GetSummaryHistory)
		v1.GET("/candles/:ticker", marketDataHandler.GetCandles)
		v1.GET("/indicators/:ticker", marketDataHandler.GetIndicators)
		v1.GET("/moving-averages/:ticker", marketDataHandler.GetMovingAverages)
		v1.GET("/technical-signals/:ticker", marketDataHandler.GetTechnicalSignals)
		v1.GET("/alerts/:ticker", alertHandler.GetAlerts)

		// Data ingestion routes
		v1.POST("/fill-data/all", dataFillHandler.StartFillAll)
		v1.POST("/fill-data/:ticker", dataFillHandler.StartFill)
		v1.GET("/fill-data/jobs/:id", dataFillHandler.GetFillJob)
		v1.GET("/fill-data/:ticker/status", dataFillHandler.GetFillStatus)
		v1.GET("/data-sufficiency/:ticker", dataFillHandler.GetSufficiency)

		// Backtest routes
		backtests := v1.Group("/backtest")
		{
			backtests.POST("", backtestHandler.RunBacktest)
			backtests.POST("/compare", backtestHandler.CompareBacktests)
			backtests.GET("/strategies", backtestHandler.GetStrategies)
		}

		// Maintenance routes (requires service key)
		maintenance := v1.Group("")
		maintenance.Use(middleware.ServiceAuthMiddleware(cfg.Auth.ServiceKey, logger))
		{
			maintenance.POST("/data-replenish", dataFillHandler.Replenish)
			maintenance.POST("/reset-data/:ticker", dataFillHandler.ResetData)
		}
	}
	return router
}
