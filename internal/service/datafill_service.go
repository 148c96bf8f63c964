package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anc5557/ChartBeacon/internal/client"
	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"

	"go.uber.org/zap"
)

// ErrFillInProgress is returned when a fill job is already running for a ticker
var ErrFillInProgress = errors.New("fill job already in progress")

// ErrFillJobNotFound is returned when a fill job ID does not exist
var ErrFillJobNotFound = errors.New("fill job not found")

// refreshRanges maps each timeframe to the short Yahoo range used for
// incremental top-ups on the scheduled cadence
var refreshRanges = map[string]string{
	model.Timeframe5m:  "1d",
	model.Timeframe1h:  "5d",
	model.Timeframe1d:  "1mo",
	model.Timeframe5d:  "3mo",
	model.Timeframe1mo: "1y",
	model.Timeframe3mo: "2y",
}

// DataFillService manages candle ingestion: full backfills, incremental
// refreshes, sufficiency checks and resets
type DataFillService struct {
	symbolRepo  *repository.SymbolRepository
	candleRepo  *repository.CandleRepository
	indRepo     *repository.IndicatorRepository
	maRepo      *repository.MovingAvgRepository
	summaryRepo *repository.SummaryRepository
	fillJobRepo *repository.FillJobRepository
	yahoo       *client.YahooClient
	analysis    *AnalysisService
	alerts      *AlertService
	maxRetries  int
	logger      *zap.Logger
}

// NewDataFillService creates a new data fill service
func NewDataFillService(
	symbolRepo *repository.SymbolRepository,
	candleRepo *repository.CandleRepository,
	indRepo *repository.IndicatorRepository,
	maRepo *repository.MovingAvgRepository,
	summaryRepo *repository.SummaryRepository,
	fillJobRepo *repository.FillJobRepository,
	yahoo *client.YahooClient,
	analysis *AnalysisService,
	alerts *AlertService,
	maxRetries int,
	logger *zap.Logger,
) *DataFillService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &DataFillService{
		symbolRepo:  symbolRepo,
		candleRepo:  candleRepo,
		indRepo:     indRepo,
		maRepo:      maRepo,
		summaryRepo: summaryRepo,
		fillJobRepo: fillJobRepo,
		yahoo:       yahoo,
		analysis:    analysis,
		alerts:      alerts,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

// StartFill creates a background fill job for a ticker and returns its ID.
// An empty timeframe list fills every supported timeframe.
func (s *DataFillService) StartFill(
	ctx context.Context,
	ticker string,
	req *model.FillRequest,
) (int, error) {
	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return 0, err
	}
	if symbol == nil {
		return 0, ErrSymbolNotFound
	}

	timeframes := req.Timeframes
	if len(timeframes) == 0 {
		timeframes = model.AllTimeframes
	}
	for _, tf := range timeframes {
		if !model.IsValidTimeframe(tf) {
			return 0, fmt.Errorf("%w: %s", ErrInvalidTimeframe, tf)
		}
	}

	latest, err := s.fillJobRepo.GetLatestByTicker(ctx, symbol.Ticker)
	if err != nil {
		return 0, err
	}
	if latest != nil && (latest.Status == model.FillStatusPending || latest.Status == model.FillStatusRunning) {
		return 0, ErrFillInProgress
	}

	jobID, err := s.fillJobRepo.Create(ctx, symbol.Ticker, timeframes)
	if err != nil {
		// The partial unique index closes the race between the check
		// above and the insert when two fills start at once.
		if errors.Is(err, repository.ErrActiveJobExists) {
			return 0, ErrFillInProgress
		}
		return 0, err
	}

	// Detached from the request context: the fill outlives the HTTP call
	go s.runFill(context.Background(), jobID, symbol, timeframes, req.Period)

	return jobID, nil
}

// StartFillAll creates a background fill job for every active symbol and
// returns job IDs keyed by ticker. Symbols with a job already in flight
// are skipped.
func (s *DataFillService) StartFillAll(
	ctx context.Context,
	req *model.FillRequest,
) (map[string]int, error) {
	symbols, err := s.symbolRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	started := make(map[string]int)
	for i := range symbols {
		jobID, err := s.StartFill(ctx, symbols[i].Ticker, req)
		if err != nil {
			if errors.Is(err, ErrFillInProgress) {
				s.logger.Warn("Skipping symbol with fill in progress",
					zap.String("ticker", symbols[i].Ticker))
				continue
			}
			return started, err
		}
		started[symbols[i].Ticker] = jobID
	}

	return started, nil
}

// runFill executes one fill job with exponential backoff between retries
func (s *DataFillService) runFill(
	ctx context.Context,
	jobID int,
	symbol *model.Symbol,
	timeframes []string,
	period string,
) {
	if err := s.fillJobRepo.SetStatus(ctx, jobID, model.FillStatusRunning, nil); err != nil {
		s.logger.Error("Failed to mark fill job running, abandoning job",
			zap.Error(err),
			zap.Int("job_id", jobID))
		return
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			s.logger.Warn("Retrying fill job",
				zap.Int("job_id", jobID),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			time.Sleep(backoff)
			if err := s.fillJobRepo.SetStatus(ctx, jobID, model.FillStatusRunning, nil); err != nil {
				s.logger.Error("Failed to bump fill job retry, abandoning job",
					zap.Error(err),
					zap.Int("job_id", jobID))
				return
			}
		}

		lastErr = s.fillSymbol(ctx, symbol, timeframes, period)
		if lastErr == nil {
			if err := s.fillJobRepo.SetStatus(ctx, jobID, model.FillStatusCompleted, nil); err != nil {
				s.logger.Error("Failed to mark fill job completed",
					zap.Error(err),
					zap.Int("job_id", jobID))
			}
			s.logger.Info("Fill job completed",
				zap.Int("job_id", jobID),
				zap.String("ticker", symbol.Ticker))
			return
		}
	}

	errMsg := lastErr.Error()
	if err := s.fillJobRepo.SetStatus(ctx, jobID, model.FillStatusFailed, &errMsg); err != nil {
		s.logger.Error("Failed to mark fill job failed",
			zap.Error(err),
			zap.Int("job_id", jobID))
	}
	s.logger.Error("Fill job failed",
		zap.Error(lastErr),
		zap.Int("job_id", jobID),
		zap.String("ticker", symbol.Ticker))
}

// fillSymbol fetches, stores and analyzes candles for each timeframe
func (s *DataFillService) fillSymbol(
	ctx context.Context,
	symbol *model.Symbol,
	timeframes []string,
	period string,
) error {
	for _, tf := range timeframes {
		candles, err := s.yahoo.FetchCandles(ctx, symbol.Ticker, tf, period)
		if err != nil {
			return fmt.Errorf("fetch %s/%s: %w", symbol.Ticker, tf, err)
		}
		if len(candles) == 0 {
			s.logger.Warn("Provider returned no candles",
				zap.String("ticker", symbol.Ticker),
				zap.String("timeframe", tf))
			continue
		}

		if err := s.candleRepo.UpsertBatch(ctx, symbol.ID, tf, candles); err != nil {
			return fmt.Errorf("store %s/%s: %w", symbol.Ticker, tf, err)
		}

		change, err := s.analysis.Refresh(ctx, symbol, tf)
		if err != nil {
			return fmt.Errorf("analyze %s/%s: %w", symbol.Ticker, tf, err)
		}
		if change != nil {
			if err := s.alerts.Dispatch(ctx, symbol.ID, change); err != nil {
				s.logger.Error("Failed to record alert",
					zap.Error(err),
					zap.String("ticker", symbol.Ticker))
			}
		}
	}
	return nil
}

// RefreshTimeframe does one incremental top-up for a symbol/timeframe,
// used by the scheduled refresh cycle
func (s *DataFillService) RefreshTimeframe(
	ctx context.Context,
	symbol *model.Symbol,
	timeframe string,
) error {
	period := refreshRanges[timeframe]

	candles, err := s.yahoo.FetchCandles(ctx, symbol.Ticker, timeframe, period)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return nil
	}

	if err := s.candleRepo.UpsertBatch(ctx, symbol.ID, timeframe, candles); err != nil {
		return err
	}

	change, err := s.analysis.Refresh(ctx, symbol, timeframe)
	if err != nil {
		return err
	}
	if change != nil {
		return s.alerts.Dispatch(ctx, symbol.ID, change)
	}
	return nil
}

// GetStatus retrieves the most recent fill job for a ticker
func (s *DataFillService) GetStatus(ctx context.Context, ticker string) (*model.FillJob, error) {
	job, err := s.fillJobRepo.GetLatestByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrSymbolNotFound
	}
	return job, nil
}

// GetJob retrieves one fill job by the ID returned from StartFill
func (s *DataFillService) GetJob(ctx context.Context, id int) (*model.FillJob, error) {
	job, err := s.fillJobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrFillJobNotFound
	}
	return job, nil
}

// GetSufficiency evaluates candle coverage for every timeframe of a ticker
func (s *DataFillService) GetSufficiency(
	ctx context.Context,
	ticker string,
) ([]model.DataSufficiency, error) {
	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, ErrSymbolNotFound
	}

	now := time.Now().UTC()
	result := make([]model.DataSufficiency, 0, len(model.AllTimeframes))
	for _, tf := range model.AllTimeframes {
		count, err := s.candleRepo.Count(ctx, symbol.ID, tf)
		if err != nil {
			return nil, err
		}
		latest, err := s.candleRepo.LatestTs(ctx, symbol.ID, tf)
		if err != nil {
			return nil, err
		}

		minRequired := model.TimeframeMinCandles[tf]
		maxAge := model.TimeframeMaxAgeDays[tf]

		sufficient := count >= minRequired
		fresh := latest != nil && now.Sub(*latest) <= time.Duration(maxAge)*24*time.Hour

		result = append(result, model.DataSufficiency{
			Timeframe:    tf,
			CandleCount:  count,
			MinRequired:  minRequired,
			LatestTs:     latest,
			MaxAgeDays:   maxAge,
			Sufficient:   sufficient,
			Fresh:        fresh,
			NeedsRefresh: !sufficient || !fresh,
		})
	}

	return result, nil
}

// Replenish scans all active symbols and refills every symbol/timeframe
// pair with insufficient or stale data. Returns the refilled pairs keyed
// by ticker.
func (s *DataFillService) Replenish(ctx context.Context) (map[string][]string, error) {
	symbols, err := s.symbolRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	refilled := make(map[string][]string)
	for i := range symbols {
		symbol := &symbols[i]

		sufficiency, err := s.GetSufficiency(ctx, symbol.Ticker)
		if err != nil {
			return refilled, err
		}

		var stale []string
		for _, suff := range sufficiency {
			if suff.NeedsRefresh {
				stale = append(stale, suff.Timeframe)
			}
		}
		if len(stale) == 0 {
			continue
		}

		if err := s.fillSymbol(ctx, symbol, stale, ""); err != nil {
			s.logger.Error("Failed to replenish symbol",
				zap.Error(err),
				zap.String("ticker", symbol.Ticker))
			continue
		}
		refilled[symbol.Ticker] = stale
	}

	return refilled, nil
}

// ResetData deletes all derived and raw data for a ticker, optionally
// scoped to one timeframe. Returns the number of deleted candles.
func (s *DataFillService) ResetData(
	ctx context.Context,
	ticker string,
	timeframe *string,
) (int64, error) {
	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return 0, err
	}
	if symbol == nil {
		return 0, ErrSymbolNotFound
	}
	if timeframe != nil && !model.IsValidTimeframe(*timeframe) {
		return 0, ErrInvalidTimeframe
	}

	if _, err := s.summaryRepo.DeleteBySymbol(ctx, symbol.ID, timeframe); err != nil {
		return 0, err
	}
	if _, err := s.indRepo.DeleteBySymbol(ctx, symbol.ID, timeframe); err != nil {
		return 0, err
	}
	if _, err := s.maRepo.DeleteBySymbol(ctx, symbol.ID, timeframe); err != nil {
		return 0, err
	}

	deleted, err := s.candleRepo.DeleteBySymbol(ctx, symbol.ID, timeframe)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Reset symbol data",
		zap.String("ticker", symbol.Ticker),
		zap.Int64("deleted_candles", deleted))

	return deleted, nil
}
