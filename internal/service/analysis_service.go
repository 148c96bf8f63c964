package service

import (
	"context"
	"fmt"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"
	"github.com/anc5557/ChartBeacon/internal/ta"

	"go.uber.org/zap"
)

// analysisLookback is how many recent candles feed one recalculation.
// MA200 needs 200 bars of history, so the tail rows we persist still
// have full context.
const analysisLookback = 500

// persistTail is how many trailing rows of each recalculated series are
// written back, covering late bar revisions from the data provider.
const persistTail = 50

// AnalysisService recomputes indicators, moving averages and the technical
// summary from stored candles
type AnalysisService struct {
	candleRepo    *repository.CandleRepository
	indicatorRepo *repository.IndicatorRepository
	movingAvgRepo *repository.MovingAvgRepository
	summaryRepo   *repository.SummaryRepository
	logger        *zap.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	candleRepo *repository.CandleRepository,
	indicatorRepo *repository.IndicatorRepository,
	movingAvgRepo *repository.MovingAvgRepository,
	summaryRepo *repository.SummaryRepository,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		candleRepo:    candleRepo,
		indicatorRepo: indicatorRepo,
		movingAvgRepo: movingAvgRepo,
		summaryRepo:   summaryRepo,
		logger:        logger,
	}
}

// Refresh recalculates the indicator and moving average series for a
// symbol/timeframe from stored candles, rescores the technical summary for
// the latest bar, and reports a level change when the level moved since the
// previous scoring run. Returns nil when there is no change.
func (s *AnalysisService) Refresh(
	ctx context.Context,
	symbol *model.Symbol,
	timeframe string,
) (*model.LevelChange, error) {
	candles, err := s.candleRepo.GetRecent(ctx, symbol.ID, timeframe, analysisLookback)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		s.logger.Warn("No candles to analyze",
			zap.String("ticker", symbol.Ticker),
			zap.String("timeframe", timeframe))
		return nil, nil
	}

	indicatorRows, movingAvgRows := buildSeries(symbol.ID, timeframe, candles)

	tail := len(indicatorRows) - persistTail
	if tail < 0 {
		tail = 0
	}

	if err := s.indicatorRepo.UpsertBatch(ctx, indicatorRows[tail:]); err != nil {
		return nil, fmt.Errorf("failed to store indicators: %w", err)
	}
	if err := s.movingAvgRepo.UpsertBatch(ctx, movingAvgRows[tail:]); err != nil {
		return nil, fmt.Errorf("failed to store moving averages: %w", err)
	}

	last := len(candles) - 1
	buy, sell, neutral := scoreVotes(&indicatorRows[last], &movingAvgRows[last], candles[last].Close)
	level := ta.DetermineLevel(buy, sell, neutral)

	prev, err := s.summaryRepo.GetLatest(ctx, symbol.ID, timeframe)
	if err != nil {
		return nil, err
	}

	summary := &model.Summary{
		SymbolID:   symbol.ID,
		Timeframe:  timeframe,
		Ts:         candles[last].Ts,
		BuyCnt:     buy,
		SellCnt:    sell,
		NeutralCnt: neutral,
		Level:      level,
	}
	if err := s.summaryRepo.Upsert(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	s.logger.Debug("Rescored technical summary",
		zap.String("ticker", symbol.Ticker),
		zap.String("timeframe", timeframe),
		zap.String("level", level),
		zap.Int("buy", buy),
		zap.Int("sell", sell),
		zap.Int("neutral", neutral))

	if prev == nil || prev.Level == level {
		return nil, nil
	}

	prevLevel := prev.Level
	return &model.LevelChange{
		Ticker:     symbol.Ticker,
		Timeframe:  timeframe,
		Ts:         candles[last].Ts,
		PrevLevel:  &prevLevel,
		Level:      level,
		BuyCnt:     buy,
		SellCnt:    sell,
		NeutralCnt: neutral,
	}, nil
}

// buildSeries computes the full indicator and moving average series for a
// candle window. Both result slices are index-aligned with the candles.
func buildSeries(
	symbolID int,
	timeframe string,
	candles []model.Candle,
) ([]model.IndicatorRow, []model.MovingAvgRow) {
	n := len(candles)
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		close[i] = c.Close
	}

	rsi := ta.RSI(close, 14)
	stochK, stochD := ta.Stoch(high, low, close, 9, 6, 3)
	macd, macdSignal := ta.MACD(close, 12, 26, 9)
	adx := ta.ADX(high, low, close, 14)
	cci := ta.CCI(high, low, close, 14)
	atr := ta.ATR(high, low, close, 14)
	willr := ta.WillR(high, low, close, 14)
	highLow := ta.HighLow(high, low, 14)
	ultOsc := ta.UltOsc(high, low, close)
	roc := ta.ROC(close, 12)
	bullBear := ta.BullBear(high, low, close, 13)

	ma5 := ta.SMA(close, 5)
	ma10 := ta.SMA(close, 10)
	ma20 := ta.SMA(close, 20)
	ma50 := ta.SMA(close, 50)
	ma100 := ta.SMA(close, 100)
	ma200 := ta.SMA(close, 200)
	ema5 := ta.EMA(close, 5)
	ema10 := ta.EMA(close, 10)
	ema20 := ta.EMA(close, 20)

	indicatorRows := make([]model.IndicatorRow, n)
	movingAvgRows := make([]model.MovingAvgRow, n)
	for i, c := range candles {
		indicatorRows[i] = model.IndicatorRow{
			SymbolID:   symbolID,
			Timeframe:  timeframe,
			Ts:         c.Ts,
			RSI14:      ta.Ptr(rsi, i),
			StochK:     ta.Ptr(stochK, i),
			StochD:     ta.Ptr(stochD, i),
			MACD:       ta.Ptr(macd, i),
			MACDSignal: ta.Ptr(macdSignal, i),
			ADX14:      ta.Ptr(adx, i),
			CCI14:      ta.Ptr(cci, i),
			ATR14:      ta.Ptr(atr, i),
			WillR14:    ta.Ptr(willr, i),
			HighLow14:  ta.Ptr(highLow, i),
			UltOsc:     ta.Ptr(ultOsc, i),
			ROC:        ta.Ptr(roc, i),
			BullBear:   ta.Ptr(bullBear, i),
		}
		movingAvgRows[i] = model.MovingAvgRow{
			SymbolID:  symbolID,
			Timeframe: timeframe,
			Ts:        c.Ts,
			MA5:       ta.Ptr(ma5, i),
			EMA5:      ta.Ptr(ema5, i),
			MA10:      ta.Ptr(ma10, i),
			EMA10:     ta.Ptr(ema10, i),
			MA20:      ta.Ptr(ma20, i),
			EMA20:     ta.Ptr(ema20, i),
			MA50:      ta.Ptr(ma50, i),
			MA100:     ta.Ptr(ma100, i),
			MA200:     ta.Ptr(ma200, i),
		}
	}

	return indicatorRows, movingAvgRows
}

// scoreVotes tallies the oscillator and moving average votes for one bar
func scoreVotes(ind *model.IndicatorRow, ma *model.MovingAvgRow, close float64) (buy, sell, neutral int) {
	votes := []ta.Vote{
		ta.ScoreRSI(ind.RSI14),
		ta.ScoreStochK(ind.StochK),
		ta.ScoreMACD(ind.MACD, ind.MACDSignal),
		ta.ScoreCCI(ind.CCI14),
		ta.ScoreROC(ind.ROC),
		ta.ScoreBullBear(ind.BullBear),
		ta.ScoreUltOsc(ind.UltOsc),
		ta.ScoreMovingAverage(ma.MA5, close),
		ta.ScoreMovingAverage(ma.EMA5, close),
		ta.ScoreMovingAverage(ma.MA10, close),
		ta.ScoreMovingAverage(ma.EMA10, close),
		ta.ScoreMovingAverage(ma.MA20, close),
		ta.ScoreMovingAverage(ma.EMA20, close),
		ta.ScoreMovingAverage(ma.MA50, close),
		ta.ScoreMovingAverage(ma.MA100, close),
		ta.ScoreMovingAverage(ma.MA200, close),
	}
	return ta.CountVotes(votes)
}
