package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MovingAvgRepository handles database operations for moving averages
type MovingAvgRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMovingAvgRepository creates a new moving average repository
func NewMovingAvgRepository(db *sqlx.DB, logger *zap.Logger) *MovingAvgRepository {
	return &MovingAvgRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch inserts a batch of moving average rows, replacing values for
// rows that already exist for the same (symbol, timeframe, ts)
func (r *MovingAvgRepository) UpsertBatch(
	ctx context.Context,
	rows []model.MovingAvgRow,
) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO moving_avgs (
			symbol_id, timeframe, ts,
			ma5, ema5, ma10, ema10, ma20, ema20, ma50, ma100, ma200, calc_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (symbol_id, timeframe, ts)
		DO UPDATE SET
			ma5 = EXCLUDED.ma5,
			ema5 = EXCLUDED.ema5,
			ma10 = EXCLUDED.ma10,
			ema10 = EXCLUDED.ema10,
			ma20 = EXCLUDED.ma20,
			ema20 = EXCLUDED.ema20,
			ma50 = EXCLUDED.ma50,
			ma100 = EXCLUDED.ma100,
			ma200 = EXCLUDED.ma200,
			calc_at = EXCLUDED.calc_at
	`)
	if err != nil {
		r.logger.Error("Failed to prepare statement", zap.Error(err))
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, row := range rows {
		_, err = stmt.ExecContext(
			ctx,
			row.SymbolID,
			row.Timeframe,
			row.Ts,
			row.MA5,
			row.EMA5,
			row.MA10,
			row.EMA10,
			row.MA20,
			row.EMA20,
			row.MA50,
			row.MA100,
			row.MA200,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to insert moving average row",
				zap.Error(err),
				zap.Time("ts", row.Ts))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}

	return nil
}

// GetLatest retrieves the most recent moving average row, nil when none exist
func (r *MovingAvgRepository) GetLatest(
	ctx context.Context,
	symbolID int,
	timeframe string,
) (*model.MovingAvgRow, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts,
			ma5, ema5, ma10, ema10, ma20, ema20, ma50, ma100, ma200, calc_at
		FROM moving_avgs
		WHERE symbol_id = $1 AND timeframe = $2
		ORDER BY ts DESC
		LIMIT 1
	`

	var row model.MovingAvgRow
	err := r.db.GetContext(ctx, &row, query, symbolID, timeframe)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest moving averages",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return &row, nil
}

// GetRange retrieves moving average rows between optional time bounds in
// ascending time order
func (r *MovingAvgRepository) GetRange(
	ctx context.Context,
	symbolID int,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
) ([]model.MovingAvgRow, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts,
			ma5, ema5, ma10, ema10, ma20, ema20, ma50, ma100, ma200, calc_at
		FROM moving_avgs
		WHERE symbol_id = $1 AND timeframe = $2
	`

	args := []interface{}{symbolID, timeframe}
	argCount := 3

	if startDate != nil {
		query += fmt.Sprintf(" AND ts >= $%d", argCount)
		args = append(args, *startDate)
		argCount++
	}

	if endDate != nil {
		query += fmt.Sprintf(" AND ts <= $%d", argCount)
		args = append(args, *endDate)
	}

	query += " ORDER BY ts"

	rows := []model.MovingAvgRow{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.Error("Failed to get moving average range",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return rows, nil
}

// DeleteBySymbol removes all moving average rows for a symbol, optionally
// scoped to one timeframe, and returns the number of deleted rows
func (r *MovingAvgRepository) DeleteBySymbol(
	ctx context.Context,
	symbolID int,
	timeframe *string,
) (int64, error) {
	query := `DELETE FROM moving_avgs WHERE symbol_id = $1`
	args := []interface{}{symbolID}

	if timeframe != nil {
		query += " AND timeframe = $2"
		args = append(args, *timeframe)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete moving averages",
			zap.Error(err),
			zap.Int("symbol_id", symbolID))
		return 0, err
	}

	return result.RowsAffected()
}
