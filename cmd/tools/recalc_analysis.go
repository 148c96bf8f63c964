// Recalculates indicators, moving averages and summaries for every
// registered symbol from the candles already in the database. Useful
// after a formula change or a manual candle import.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/anc5557/ChartBeacon/internal/config"
	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"
	"github.com/anc5557/ChartBeacon/internal/service"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	timeframe := flag.String("timeframe", "", "recalculate only this timeframe")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
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

	// Initialize repositories and the analysis pipeline
	symbolRepo := repository.NewSymbolRepository(db, logger)
	candleRepo := repository.NewCandleRepository(db, logger)
	indicatorRepo := repository.NewIndicatorRepository(db, logger)
	movingAvgRepo := repository.NewMovingAvgRepository(db, logger)
	summaryRepo := repository.NewSummaryRepository(db, logger)
	analysis := service.NewAnalysisService(candleRepo, indicatorRepo, movingAvgRepo, summaryRepo, logger)

	timeframes := model.AllTimeframes
	if *timeframe != "" {
		if !model.IsValidTimeframe(*timeframe) {
			logger.Fatal("Invalid timeframe", zap.String("timeframe", *timeframe))
		}
		timeframes = []string{*timeframe}
	}

	if err := recalcAll(symbolRepo, analysis, timeframes, logger); err != nil {
		logger.Fatal("Failed to recalculate analysis data", zap.Error(err))
	}

	logger.Info("Successfully recalculated analysis data")
}

func recalcAll(
	symbolRepo *repository.SymbolRepository,
	analysis *service.AnalysisService,
	timeframes []string,
	logger *zap.Logger,
) error {
	ctx := context.Background()

	symbols, err := symbolRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	logger.Info("Found symbols", zap.Int("count", len(symbols)))

	for i := range symbols {
		symbol := &symbols[i]
		for _, tf := range timeframes {
			change, err := analysis.Refresh(ctx, symbol, tf)
			if err != nil {
				logger.Error("Failed to recalculate",
					zap.Error(err),
					zap.String("ticker", symbol.Ticker),
					zap.String("timeframe", tf))
				continue
			}

			logger.Info("Recalculated",
				zap.String("ticker", symbol.Ticker),
				zap.String("timeframe", tf),
				zap.Bool("level_changed", change != nil))
		}
	}

	return nil
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
		Encoding:         "console", // Use console encoding for human-readable output
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
