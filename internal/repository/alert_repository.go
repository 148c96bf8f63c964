package repository

import (
	"context"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// AlertRepository handles database operations for dispatched alerts
type AlertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// Insert records a dispatched level-change alert
func (r *AlertRepository) Insert(ctx context.Context, a *model.AlertLog) error {
	query := `
		INSERT INTO alert_log (symbol_id, timeframe, ts, prev_level, level, sent_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.SymbolID, a.Timeframe, a.Ts, a.PrevLevel, a.Level)
	if err != nil {
		r.logger.Error("Failed to insert alert log",
			zap.Error(err),
			zap.Int("symbol_id", a.SymbolID),
			zap.String("timeframe", a.Timeframe))
		return err
	}

	return nil
}

// Exists reports whether an alert was already sent for this bar,
// preventing duplicate notifications
func (r *AlertRepository) Exists(
	ctx context.Context,
	symbolID int,
	timeframe string,
	ts time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM alert_log
			WHERE symbol_id = $1 AND timeframe = $2 AND ts = $3
			LIMIT 1
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, symbolID, timeframe, ts)
	if err != nil {
		r.logger.Error("Failed to check alert log",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return false, err
	}

	return exists, nil
}

// GetRecent retrieves the most recent alerts for a symbol in descending
// dispatch order
func (r *AlertRepository) GetRecent(
	ctx context.Context,
	symbolID int,
	limit int,
) ([]model.AlertLog, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts, prev_level, level, sent_at
		FROM alert_log
		WHERE symbol_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`

	alerts := []model.AlertLog{}
	err := r.db.SelectContext(ctx, &alerts, query, symbolID, limit)
	if err != nil {
		r.logger.Error("Failed to get recent alerts",
			zap.Error(err),
			zap.Int("symbol_id", symbolID))
		return nil, err
	}

	return alerts, nil
}
