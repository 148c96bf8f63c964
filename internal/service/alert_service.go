package service

import (
	"context"

	"github.com/anc5557/ChartBeacon/internal/client"
	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"

	"go.uber.org/zap"
)

// AlertService dispatches level-change notifications and records them
type AlertService struct {
	symbolRepo *repository.SymbolRepository
	alertRepo  *repository.AlertRepository
	discord    *client.DiscordClient
	logger     *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	symbolRepo *repository.SymbolRepository,
	alertRepo *repository.AlertRepository,
	discord *client.DiscordClient,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		symbolRepo: symbolRepo,
		alertRepo:  alertRepo,
		discord:    discord,
		logger:     logger,
	}
}

// Dispatch sends a level-change alert unless one was already sent for the
// same bar. Delivery failures are logged but do not fail the refresh cycle.
func (s *AlertService) Dispatch(ctx context.Context, symbolID int, change *model.LevelChange) error {
	sent, err := s.alertRepo.Exists(ctx, symbolID, change.Timeframe, change.Ts)
	if err != nil {
		return err
	}
	if sent {
		s.logger.Debug("Alert already dispatched for bar",
			zap.String("ticker", change.Ticker),
			zap.String("timeframe", change.Timeframe))
		return nil
	}

	if err := s.discord.SendLevelChange(ctx, change); err != nil {
		s.logger.Error("Failed to deliver level change alert",
			zap.Error(err),
			zap.String("ticker", change.Ticker),
			zap.String("timeframe", change.Timeframe))
		return nil
	}

	return s.alertRepo.Insert(ctx, &model.AlertLog{
		SymbolID:  symbolID,
		Timeframe: change.Timeframe,
		Ts:        change.Ts,
		PrevLevel: change.PrevLevel,
		Level:     change.Level,
	})
}

// GetRecent returns the most recent dispatched alerts for a ticker
func (s *AlertService) GetRecent(ctx context.Context, ticker string, limit int) ([]model.AlertLog, error) {
	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, ErrSymbolNotFound
	}

	return s.alertRepo.GetRecent(ctx, symbol.ID, limit)
}
