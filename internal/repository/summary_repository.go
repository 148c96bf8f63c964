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

// SummaryRepository handles database operations for technical summaries
type SummaryRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *sqlx.DB, logger *zap.Logger) *SummaryRepository {
	return &SummaryRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or updates the summary for one (symbol, timeframe, ts)
func (r *SummaryRepository) Upsert(ctx context.Context, s *model.Summary) error {
	query := `
		INSERT INTO summary (symbol_id, timeframe, ts, buy_cnt, sell_cnt, neutral_cnt, level, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol_id, timeframe, ts)
		DO UPDATE SET
			buy_cnt = EXCLUDED.buy_cnt,
			sell_cnt = EXCLUDED.sell_cnt,
			neutral_cnt = EXCLUDED.neutral_cnt,
			level = EXCLUDED.level,
			scored_at = EXCLUDED.scored_at
	`

	_, err := r.db.ExecContext(ctx, query,
		s.SymbolID, s.Timeframe, s.Ts,
		s.BuyCnt, s.SellCnt, s.NeutralCnt,
		s.Level, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to upsert summary",
			zap.Error(err),
			zap.Int("symbol_id", s.SymbolID),
			zap.String("timeframe", s.Timeframe))
		return err
	}

	return nil
}

// GetLatest retrieves the most recent summary, nil when none exist
func (r *SummaryRepository) GetLatest(
	ctx context.Context,
	symbolID int,
	timeframe string,
) (*model.Summary, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts, buy_cnt, sell_cnt, neutral_cnt, level, scored_at
		FROM summary
		WHERE symbol_id = $1 AND timeframe = $2
		ORDER BY ts DESC
		LIMIT 1
	`

	var s model.Summary
	err := r.db.GetContext(ctx, &s, query, symbolID, timeframe)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest summary",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return &s, nil
}

// GetHistory retrieves summaries between optional time bounds. order must be
// "ASC" or "DESC" (callers normalize it before passing it in).
func (r *SummaryRepository) GetHistory(
	ctx context.Context,
	symbolID int,
	timeframe string,
	startDate *time.Time,
	endDate *time.Time,
	limit *int,
	order string,
) ([]model.Summary, error) {
	query := `
		SELECT id, symbol_id, timeframe, ts, buy_cnt, sell_cnt, neutral_cnt, level, scored_at
		FROM summary
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

	query += fmt.Sprintf(" ORDER BY ts %s", order)

	if limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, *limit)
	}

	summaries := []model.Summary{}
	err := r.db.SelectContext(ctx, &summaries, query, args...)
	if err != nil {
		r.logger.Error("Failed to get summary history",
			zap.Error(err),
			zap.Int("symbol_id", symbolID),
			zap.String("timeframe", timeframe))
		return nil, err
	}

	return summaries, nil
}

// DeleteBySymbol removes all summaries for a symbol, optionally scoped to
// one timeframe, and returns the number of deleted rows
func (r *SummaryRepository) DeleteBySymbol(
	ctx context.Context,
	symbolID int,
	timeframe *string,
) (int64, error) {
	query := `DELETE FROM summary WHERE symbol_id = $1`
	args := []interface{}{symbolID}

	if timeframe != nil {
		query += " AND timeframe = $2"
		args = append(args, *timeframe)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete summaries",
			zap.Error(err),
			zap.Int("symbol_id", symbolID))
		return 0, err
	}

	return result.RowsAffected()
}
