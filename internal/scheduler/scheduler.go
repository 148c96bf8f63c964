// Package scheduler drives the periodic refresh cycle: each timeframe
// gets its own ticker loop that tops up candles for every active symbol
// and rescores the technical summary.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/service"

	"go.uber.org/zap"
)

// refreshIntervals maps each timeframe to its refresh cadence
var refreshIntervals = map[string]time.Duration{
	model.Timeframe5m:  5 * time.Minute,
	model.Timeframe1h:  time.Hour,
	model.Timeframe1d:  24 * time.Hour,
	model.Timeframe5d:  24 * time.Hour,
	model.Timeframe1mo: 24 * time.Hour,
	model.Timeframe3mo: 24 * time.Hour,
}

// Scheduler runs the background refresh loops
type Scheduler struct {
	symbols  *service.SymbolService
	datafill *service.DataFillService
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler
func New(
	symbols *service.SymbolService,
	datafill *service.DataFillService,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		symbols:  symbols,
		datafill: datafill,
		logger:   logger,
	}
}

// Start launches one refresh loop per timeframe. Loops run until Stop is
// called or the parent context is cancelled.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	for _, tf := range model.AllTimeframes {
		interval := refreshIntervals[tf]
		s.wg.Add(1)
		go s.loop(ctx, tf, interval)
	}

	s.logger.Info("Scheduler started", zap.Int("loops", len(model.AllTimeframes)))
}

// Stop cancels all refresh loops and waits for them to drain
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, timeframe string, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll(ctx, timeframe)
		}
	}
}

// refreshAll tops up one timeframe for every active symbol
func (s *Scheduler) refreshAll(ctx context.Context, timeframe string) {
	symbols, err := s.symbols.GetActiveSymbols(ctx)
	if err != nil {
		s.logger.Error("Failed to list active symbols", zap.Error(err))
		return
	}

	start := time.Now()
	refreshed := 0
	for i := range symbols {
		if ctx.Err() != nil {
			return
		}
		if err := s.datafill.RefreshTimeframe(ctx, &symbols[i], timeframe); err != nil {
			s.logger.Error("Failed to refresh symbol",
				zap.Error(err),
				zap.String("ticker", symbols[i].Ticker),
				zap.String("timeframe", timeframe))
			continue
		}
		refreshed++
	}

	s.logger.Info("Refresh cycle finished",
		zap.String("timeframe", timeframe),
		zap.Int("symbols", refreshed),
		zap.Duration("elapsed", time.Since(start)))
}
