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

// IndicatorRepository handles database operations for computed indicators
type IndicatorRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewIndicatorRepository creates a new indicator repository
func NewIndicatorRepository(db *sqlx.DB, logger *zap.Logger) *IndicatorRepository {
	return &IndicatorRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch inserts a batch of indicator rows, replacing values for rows
// that already exist for the same (symbol, timeframe, ts)
func (r *IndicatorRepository) UpsertBatch(
	ctx context.Context,
	rows []model.IndicatorRow,
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
		INSERT INTO indicators (
			symbol_id, timeframe, ts,
			rsi14, stoch_k, stoch_d, macd, macd_signal,
			adx14, cci14, atr14, willr14, highlow14,
			ultosc, roc, bull_bear, calc_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (symbol_id, timeframe, ts)
		DO UPDATE SET
			rsi14 = EXCLUDED.rsi14,
			stoch_k = EXCLUDED.stoch_k,
			stoch_d = EXCLUDED.stoch_d,
			macd = EXCLUDED.macd,
			macd_signal = EXCLUDED.macd_signal,
			adx14 = EXCLUDED.adx14,
			cci14 = EXCLUDED.cci14,
			atr14 = EXCLUDED.atr14,
			willr14 = EXCLUDED.willr14,
			highlow14 = EXCLUDED.highlow14,
			ultosc = EXCLUDED.ultosc,
			roc = EXCLUDED.roc,
			bull_bear = EXCLUDED.bull_bear,
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
			row.RSI14,
			row.StochK,
			row.StochD,
			row.MACD,
			row.MACDSignal,
			row.ADX14,
			row.CCI14,
			row.ATR14,
			row.WillR14,
			row.HighLow14,
			row.UltOsc,
			row.ROC,
			row.BullBear,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to insert indicator row",
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

// GetLatest retrieves the most recent indicator row, nil when none exist
func (r *IndicatorRepository) GetLatest(
	ctx context.Context,
	symbolID int,
	timeframe string,
) (*model.IndicatorRow, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts,
			rsi14, stoch_k, stoch_d, macd, macd_signal,
			adx14, cci14, atr14, willr14, highlow14,
			ultosc, roc, bull_bear, calc_at
		FROM indicators
		WHERE symbol_id = $1 AND timeframe = $2
		ORDER BY ts DESC
		LIMIT 1
	`

	var row model.IndicatorRow
	err := r.db.GetContext(ctx, &row, query, symbolID, timeframe)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest indicators",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return &row, nil
}

// GetRange retrieves indicator rows between optional time bounds in
// ascending time order
func (r *IndicatorRepository) GetRange(
	ctx context.Context,
	symbolID int,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
) ([]model.IndicatorRow, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts,
			rsi14, stoch_k, stoch_d, macd, macd_signal,
			adx14, cci14, atr14, willr14, highlow14,
			ultosc, roc, bull_bear, calc_at
		FROM indicators
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

	rows := []model.IndicatorRow{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.Error("Failed to get indicator range",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return rows, nil
}

// DeleteBySymbol removes all indicator rows for a symbol, optionally scoped
// to one timeframe, and returns the number of deleted rows
func (r *IndicatorRepository) DeleteBySymbol(
	ctx context.Context,
	symbolID int,
	timeframe *string,
) (int64, error) {
	query := `DELETE FROM indicators WHERE symbol_id = $1`
	args := []interface{}{symbolID}

	if timeframe != nil {
		query += " AND timeframe = $2"
		args = append(args, *timeframe)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete indicators",
			zap.Error(err),
			zap.Int("symbol_id", symbolID))
		return 0, err
	}

	return result.RowsAffected()
}
