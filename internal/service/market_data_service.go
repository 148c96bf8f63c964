package service

import (
	"context"
	"errors"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"
	"github.com/anc5557/ChartBeacon/internal/ta"

	"go.uber.org/zap"
)

// ErrNoSummary is returned when a symbol/timeframe has not been scored yet
var ErrNoSummary = errors.New("no summary available")

// MarketDataService serves stored candles, indicators and summaries
type MarketDataService struct {
	symbolRepo    *repository.SymbolRepository
	candleRepo    *repository.CandleRepository
	indicatorRepo *repository.IndicatorRepository
	movingAvgRepo *repository.MovingAvgRepository
	summaryRepo   *repository.SummaryRepository
	logger        *zap.Logger
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(
	symbolRepo *repository.SymbolRepository,
	candleRepo *repository.CandleRepository,
	indicatorRepo *repository.IndicatorRepository,
	movingAvgRepo *repository.MovingAvgRepository,
	summaryRepo *repository.SummaryRepository,
	logger *zap.Logger,
) *MarketDataService {
	return &MarketDataService{
		symbolRepo:    symbolRepo,
		candleRepo:    candleRepo,
		indicatorRepo: indicatorRepo,
		movingAvgRepo: movingAvgRepo,
		summaryRepo:   summaryRepo,
		logger:        logger,
	}
}

// resolveSymbol maps a ticker to its stored symbol row
func (s *MarketDataService) resolveSymbol(ctx context.Context, ticker string) (*model.Symbol, error) {
	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, ErrSymbolNotFound
	}
	return symbol, nil
}

// GetCandles retrieves stored candles for a ticker/timeframe
func (s *MarketDataService) GetCandles(
	ctx context.Context,
	ticker string,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
	limit *int,
) ([]model.Candle, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.candleRepo.GetRange(ctx, symbol.ID, timeframe, startDate, endDate, limit)
}

// GetLatestIndicators retrieves the most recent indicator row
func (s *MarketDataService) GetLatestIndicators(
	ctx context.Context,
	ticker string,
	timeframe string,
) (*model.IndicatorRow, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.indicatorRepo.GetLatest(ctx, symbol.ID, timeframe)
}

// GetIndicatorRange retrieves indicator rows between optional time bounds
func (s *MarketDataService) GetIndicatorRange(
	ctx context.Context,
	ticker string,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
) ([]model.IndicatorRow, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.indicatorRepo.GetRange(ctx, symbol.ID, timeframe, startDate, endDate)
}

// GetLatestMovingAvgs retrieves the most recent moving average row
func (s *MarketDataService) GetLatestMovingAvgs(
	ctx context.Context,
	ticker string,
	timeframe string,
) (*model.MovingAvgRow, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.movingAvgRepo.GetLatest(ctx, symbol.ID, timeframe)
}

// GetMovingAvgRange retrieves moving average rows between optional bounds
func (s *MarketDataService) GetMovingAvgRange(
	ctx context.Context,
	ticker string,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
) ([]model.MovingAvgRow, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.movingAvgRepo.GetRange(ctx, symbol.ID, timeframe, startDate, endDate)
}

// GetSummary retrieves the current technical summary
func (s *MarketDataService) GetSummary(
	ctx context.Context,
	ticker string,
	timeframe string,
) (*model.Summary, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	summary, err := s.summaryRepo.GetLatest(ctx, symbol.ID, timeframe)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrNoSummary
	}

	return summary, nil
}

// GetSummaryHistory retrieves historical summaries between optional bounds.
// order must already be normalized to "ASC" or "DESC".
func (s *MarketDataService) GetSummaryHistory(
	ctx context.Context,
	ticker string,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
	limit *int,
	order string,
) ([]model.Summary, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.summaryRepo.GetHistory(ctx, symbol.ID, timeframe, startDate, endDate, limit, order)
}

// GetTechnicalSignals builds the per-indicator vote breakdown for the
// latest bar of a ticker/timeframe
func (s *MarketDataService) GetTechnicalSignals(
	ctx context.Context,
	ticker string,
	timeframe string,
) (*model.TechnicalSignalSummary, error) {
	if !model.IsValidTimeframe(timeframe) {
		return nil, ErrInvalidTimeframe
	}

	symbol, err := s.resolveSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}

	ind, err := s.indicatorRepo.GetLatest(ctx, symbol.ID, timeframe)
	if err != nil {
		return nil, err
	}
	ma, err := s.movingAvgRepo.GetLatest(ctx, symbol.ID, timeframe)
	if err != nil {
		return nil, err
	}
	if ind == nil || ma == nil {
		return nil, ErrNoSummary
	}

	candles, err := s.candleRepo.GetRecent(ctx, symbol.ID, timeframe, 1)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoSummary
	}
	closePrice := candles[0].Close

	oscillators := []model.TechnicalSignal{
		{Name: "RSI(14)", Value: ind.RSI14, Signal: string(ta.ScoreRSI(ind.RSI14))},
		{Name: "Stochastic %K(9,6)", Value: ind.StochK, Signal: string(ta.ScoreStochK(ind.StochK))},
		{Name: "MACD(12,26)", Value: ind.MACD, Signal: string(ta.ScoreMACD(ind.MACD, ind.MACDSignal))},
		{Name: "CCI(14)", Value: ind.CCI14, Signal: string(ta.ScoreCCI(ind.CCI14))},
		{Name: "ROC(12)", Value: ind.ROC, Signal: string(ta.ScoreROC(ind.ROC))},
		{Name: "Bull/Bear Power(13)", Value: ind.BullBear, Signal: string(ta.ScoreBullBear(ind.BullBear))},
		{Name: "Ultimate Oscillator", Value: ind.UltOsc, Signal: string(ta.ScoreUltOsc(ind.UltOsc))},
		{Name: "Williams %R", Value: ind.WillR14, Signal: string(ta.ScoreWillR(ind.WillR14))},
		{Name: "High/Low(14)", Value: ind.HighLow14, Signal: string(ta.ScoreHighLow(ind.HighLow14))},
	}

	movingAvgs := []model.TechnicalSignal{
		{Name: "MA5", Value: ma.MA5, Signal: string(ta.ScoreMovingAverage(ma.MA5, closePrice))},
		{Name: "EMA5", Value: ma.EMA5, Signal: string(ta.ScoreMovingAverage(ma.EMA5, closePrice))},
		{Name: "MA10", Value: ma.MA10, Signal: string(ta.ScoreMovingAverage(ma.MA10, closePrice))},
		{Name: "EMA10", Value: ma.EMA10, Signal: string(ta.ScoreMovingAverage(ma.EMA10, closePrice))},
		{Name: "MA20", Value: ma.MA20, Signal: string(ta.ScoreMovingAverage(ma.MA20, closePrice))},
		{Name: "EMA20", Value: ma.EMA20, Signal: string(ta.ScoreMovingAverage(ma.EMA20, closePrice))},
		{Name: "MA50", Value: ma.MA50, Signal: string(ta.ScoreMovingAverage(ma.MA50, closePrice))},
		{Name: "MA100", Value: ma.MA100, Signal: string(ta.ScoreMovingAverage(ma.MA100, closePrice))},
		{Name: "MA200", Value: ma.MA200, Signal: string(ta.ScoreMovingAverage(ma.MA200, closePrice))},
	}

	buy, sell, neutral := scoreVotes(ind, ma, closePrice)

	return &model.TechnicalSignalSummary{
		Ticker:      symbol.Ticker,
		Timeframe:   timeframe,
		Ts:          ind.Ts,
		ClosePrice:  closePrice,
		Oscillators: oscillators,
		MovingAvgs:  movingAvgs,
		BuyCount:    buy,
		SellCount:   sell,
		NeutralCnt:  neutral,
		Level:       ta.DetermineLevel(buy, sell, neutral),
	}, nil
}
