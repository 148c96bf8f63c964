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

// CandleRepository handles database operations for raw OHLCV candles
type CandleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCandleRepository creates a new candle repository
func NewCandleRepository(db *sqlx.DB, logger *zap.Logger) *CandleRepository {
	return &CandleRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch inserts a batch of candles, updating rows that already exist
// for the same (symbol, timeframe, ts)
func (r *CandleRepository) UpsertBatch(
	ctx context.Context,
	symbolID int,
	timeframe string,
	candles []model.OHLCV,
) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO candles_raw (symbol_id, timeframe, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol_id, timeframe, ts)
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		r.logger.Error("Failed to prepare statement", zap.Error(err))
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err = stmt.ExecContext(
			ctx,
			symbolID,
			timeframe,
			c.Ts,
			c.Open,
			c.High,
			c.Low,
			c.Close,
			c.Volume,
		)
		if err != nil {
			r.logger.Error("Failed to insert candle",
				zap.Error(err),
				zap.Time("ts", c.Ts))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}

	return nil
}

// GetRecent retrieves the most recent candles in ascending time order
func (r *CandleRepository) GetRecent(
	ctx context.Context,
	symbolID int,
	timeframe string,
	limit int,
) ([]model.Candle, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts, open, high, low, close, volume
		FROM (
			SELECT id, symbol_id, timeframe, ts, open, high, low, close, volume
			FROM candles_raw
			WHERE symbol_id = $1 AND timeframe = $2
			ORDER BY ts DESC
			LIMIT $3
		) recent
		ORDER BY ts
	`

	candles := []model.Candle{}
	err := r.db.SelectContext(ctx, &candles, query, symbolID, timeframe, limit)
	if err != nil {
		r.logger.Error("Failed to get recent candles",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return candles, nil
}

// GetRange retrieves candles between optional start and end bounds
func (r *CandleRepository) GetRange(
	ctx context.Context,
	symbolID int,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
	limit *int,
) ([]model.Candle, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts, open, high, low, close, volume
		FROM candles_raw
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
		argCount++
	}

	query += " ORDER BY ts"

	if limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, *limit)
	}

	candles := []model.Candle{}
	err := r.db.SelectContext(ctx, &candles, query, args...)
	if err != nil {
		r.logger.Error("Failed to get candle range",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return candles, nil
}

// Count returns the number of stored candles for a symbol/timeframe
func (r *CandleRepository) Count(
	ctx context.Context,
	symbolID int,
	timeframe string,
) (int, error) {
	query := `
		SELECT COUNT(*) FROM candles_raw
		WHERE symbol_id = $1 AND timeframe = $2
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, symbolID, timeframe)
	if err != nil {
		r.logger.Error("Failed to count candles",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return 0, err
	}

	return count, nil
}

// LatestTs returns the timestamp of the newest candle, nil when none exist
func (r *CandleRepository) LatestTs(
	ctx context.Context,
	symbolID int,
	timeframe string,
) (*time.Time, error) {
	query := `
		SELECT ts FROM candles_raw
		WHERE symbol_id = $1 AND timeframe = $2
		ORDER BY ts DESC
		LIMIT 1
	`

	var ts time.Time
	err := r.db.GetContext(ctx, &ts, query, symbolID, timeframe)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest candle timestamp",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return &ts, nil
}

// DeleteBySymbol removes all candles for a symbol, optionally scoped to one
// timeframe, and returns the number of deleted rows
func (r *CandleRepository) DeleteBySymbol(
	ctx context.Context,
	symbolID int,
	timeframe *string,
) (int64, error) {
	query := `DELETE FROM candles_raw WHERE symbol_id = $1`
	args := []interface{}{symbolID}

	if timeframe != nil {
		query += " AND timeframe = $2"
		args = append(args, *timeframe)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete candles",
			zap.Error(err),
			zap.Int("symbol_id", symbolID))
		return 0, err
	}

	return result.RowsAffected()
}
