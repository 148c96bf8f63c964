package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anc5557/ChartBeacon/internal/backtest"
	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultBacktestTimeframe = model.Timeframe1d
	defaultBacktestStrategy  = "technical_summary"
	defaultInitialCapital    = 100000
)

// ErrNoBacktestData is returned when the requested range holds no candles
var ErrNoBacktestData = errors.New("no data in requested range")

// BacktestService assembles merged series from storage and runs the
// backtest engine over them
type BacktestService struct {
	symbolRepo    *repository.SymbolRepository
	candleRepo    *repository.CandleRepository
	indicatorRepo *repository.IndicatorRepository
	summaryRepo   *repository.SummaryRepository
	config        backtest.Config
	logger        *zap.Logger
}

// NewBacktestService creates a new backtest service
func NewBacktestService(
	symbolRepo *repository.SymbolRepository,
	candleRepo *repository.CandleRepository,
	indicatorRepo *repository.IndicatorRepository,
	summaryRepo *repository.SummaryRepository,
	config backtest.Config,
	logger *zap.Logger,
) *BacktestService {
	return &BacktestService{
		symbolRepo:    symbolRepo,
		candleRepo:    candleRepo,
		indicatorRepo: indicatorRepo,
		summaryRepo:   summaryRepo,
		config:        config,
		logger:        logger,
	}
}

// Run executes one backtest for the requested ticker, range and strategy
func (s *BacktestService) Run(ctx context.Context, req *model.BacktestRequest) (*model.BacktestResponse, error) {
	applyBacktestDefaults(req)

	if !model.IsValidTimeframe(req.Timeframe) {
		return nil, ErrInvalidTimeframe
	}

	strategy, err := backtest.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(req.Ticker))
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, ErrSymbolNotFound
	}

	bars, err := s.loadBars(ctx, symbol.ID, req.Timeframe, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBacktestData
	}

	result, err := backtest.Run(bars, strategy, req.InitialCapital, s.config)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Backtest completed",
		zap.String("ticker", symbol.Ticker),
		zap.String("strategy", req.Strategy),
		zap.String("timeframe", req.Timeframe),
		zap.Int("bars", len(bars)),
		zap.Float64("total_return_pct", result.TotalReturnPct))

	return buildBacktestResponse(symbol.Ticker, req.Strategy, req.Timeframe, result), nil
}

// Compare runs several strategies over the same series. An empty strategy
// list compares every catalogue strategy. Individual strategy failures are
// skipped so one bad strategy does not sink the whole comparison.
func (s *BacktestService) Compare(
	ctx context.Context,
	req *model.BacktestCompareRequest,
) ([]model.BacktestResponse, error) {
	strategies := req.Strategies
	if len(strategies) == 0 {
		for _, entry := range backtest.Catalogue() {
			strategies = append(strategies, entry.Name)
		}
	}

	results := make([]model.BacktestResponse, 0, len(strategies))
	for _, name := range strategies {
		single := &model.BacktestRequest{
			Ticker:         req.Ticker,
			Timeframe:      req.Timeframe,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			InitialCapital: req.InitialCapital,
			Strategy:       name,
		}

		resp, err := s.Run(ctx, single)
		if err != nil {
			if errors.Is(err, ErrSymbolNotFound) || errors.Is(err, ErrNoBacktestData) || errors.Is(err, ErrInvalidTimeframe) {
				return nil, err
			}
			s.logger.Warn("Skipping strategy in comparison",
				zap.Error(err),
				zap.String("strategy", name))
			continue
		}
		results = append(results, *resp)
	}

	return results, nil
}

// Strategies lists every selectable strategy
func (s *BacktestService) Strategies() []model.StrategyInfo {
	catalogue := backtest.Catalogue()
	infos := make([]model.StrategyInfo, len(catalogue))
	for i, entry := range catalogue {
		infos[i] = model.StrategyInfo{
			Name:        entry.Name,
			Description: entry.Description,
			Risk:        entry.Risk,
		}
	}
	return infos
}

// loadBars merges candles, indicators and summaries into the engine's
// bar series, joined on timestamp
func (s *BacktestService) loadBars(
	ctx context.Context,
	symbolID int,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
) ([]backtest.Bar, error) {
	candles, err := s.candleRepo.GetRange(ctx, symbolID, timeframe, startDate, endDate, nil)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, nil
	}

	indicators, err := s.indicatorRepo.GetRange(ctx, symbolID, timeframe, startDate, endDate)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summaryRepo.GetHistory(ctx, symbolID, timeframe, startDate, endDate, nil, "ASC")
	if err != nil {
		return nil, err
	}

	indByTs := make(map[int64]*model.IndicatorRow, len(indicators))
	for i := range indicators {
		indByTs[indicators[i].Ts.Unix()] = &indicators[i]
	}
	levelByTs := make(map[int64]string, len(summaries))
	for i := range summaries {
		levelByTs[summaries[i].Ts.Unix()] = summaries[i].Level
	}

	bars := make([]backtest.Bar, len(candles))
	for i, c := range candles {
		bar := backtest.Bar{
			Ts:     c.Ts,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
			Level:  levelByTs[c.Ts.Unix()],
		}
		if ind, ok := indByTs[c.Ts.Unix()]; ok {
			bar.RSI14 = ind.RSI14
			bar.MACD = ind.MACD
			bar.MACDSignal = ind.MACDSignal
			bar.StochK = ind.StochK
			bar.CCI14 = ind.CCI14
			bar.ROC = ind.ROC
		}
		bars[i] = bar
	}

	return bars, nil
}

func applyBacktestDefaults(req *model.BacktestRequest) {
	if req.Timeframe == "" {
		req.Timeframe = defaultBacktestTimeframe
	}
	if req.Strategy == "" {
		req.Strategy = defaultBacktestStrategy
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = defaultInitialCapital
	}
}

// parseDateRange parses optional YYYY-MM-DD bounds; the end bound is
// extended to the end of its day so same-day candles are included
func parseDateRange(start, end string) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time

	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date: %s", start)
		}
		startDate = &t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date: %s", end)
		}
		t = t.Add(24*time.Hour - time.Second)
		endDate = &t
	}

	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, nil, errors.New("end_date must not precede start_date")
	}

	return startDate, endDate, nil
}

func buildBacktestResponse(ticker, strategy, timeframe string, r *backtest.Result) *model.BacktestResponse {
	trades := make([]model.TradeResult, len(r.Trades))
	for i, t := range r.Trades {
		trades[i] = model.TradeResult{
			Timestamp:       t.Timestamp,
			Action:          string(t.Action),
			Price:           t.Price,
			Quantity:        t.Quantity,
			Reason:          t.Reason,
			TransactionCost: t.TransactionCost,
		}
	}

	return &model.BacktestResponse{
		Ticker:               ticker,
		Strategy:             strategy,
		Timeframe:            timeframe,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		InitialCapital:       r.InitialCapital,
		FinalCapital:         r.FinalCapital,
		TotalReturnPct:       r.TotalReturnPct,
		BuyHoldReturnPct:     r.BuyHoldReturnPct,
		Alpha:                r.Alpha,
		TotalTrades:          r.TotalTrades,
		WinningTrades:        r.WinningTrades,
		LosingTrades:         r.LosingTrades,
		WinRate:              r.WinRate,
		MaxDrawdown:          r.MaxDrawdown,
		SharpeRatio:          r.SharpeRatio,
		TotalTransactionCost: r.TotalTransactionCost,
		Trades:               trades,
	}
}
