package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anc5557/ChartBeacon/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SymbolRepository handles database operations for symbols
type SymbolRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSymbolRepository creates a new symbol repository
func NewSymbolRepository(db *sqlx.DB, logger *zap.Logger) *SymbolRepository {
	return &SymbolRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new symbol and returns its ID
func (r *SymbolRepository) Create(ctx context.Context, symbol *model.Symbol) (int, error) {
	query := `
		INSERT INTO symbols (ticker, name, active, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id
	`

	var id int
	err := r.db.GetContext(ctx, &id, query, symbol.Ticker, symbol.Name, symbol.Active)
	if err != nil {
		r.logger.Error("Failed to create symbol",
			zap.Error(err),
			zap.String("ticker", symbol.Ticker))
		return 0, fmt.Errorf("failed to create symbol: %w", err)
	}

	return id, nil
}

// GetByTicker retrieves a symbol by its ticker, nil when not found
func (r *SymbolRepository) GetByTicker(ctx context.Context, ticker string) (*model.Symbol, error) {
	query := `
		SELECT id, ticker, name, active, created_at, updated_at
		FROM symbols
		WHERE ticker = $1
	`

	var symbol model.Symbol
	err := r.db.GetContext(ctx, &symbol, query, ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get symbol by ticker",
			zap.Error(err),
			zap.String("ticker", ticker))
		return nil, err
	}

	return &symbol, nil
}

// GetAll retrieves all symbols ordered by ticker
func (r *SymbolRepository) GetAll(ctx context.Context) ([]model.Symbol, error) {
	query := `
		SELECT id, ticker, name, active, created_at, updated_at
		FROM symbols
		ORDER BY ticker
	`

	symbols := []model.Symbol{}
	err := r.db.SelectContext(ctx, &symbols, query)
	if err != nil {
		r.logger.Error("Failed to get all symbols", zap.Error(err))
		return nil, err
	}

	return symbols, nil
}

// GetActive retrieves all active symbols ordered by ticker
func (r *SymbolRepository) GetActive(ctx context.Context) ([]model.Symbol, error) {
	query := `
		SELECT id, ticker, name, active, created_at, updated_at
		FROM symbols
		WHERE active = true
		ORDER BY ticker
	`

	symbols := []model.Symbol{}
	err := r.db.SelectContext(ctx, &symbols, query)
	if err != nil {
		r.logger.Error("Failed to get active symbols", zap.Error(err))
		return nil, err
	}

	return symbols, nil
}

// SetActive flips the active flag for a symbol
func (r *SymbolRepository) SetActive(ctx context.Context, ticker string, active bool) (bool, error) {
	query := `
		UPDATE symbols
		SET active = $1, updated_at = CURRENT_TIMESTAMP
		WHERE ticker = $2
	`

	result, err := r.db.ExecContext(ctx, query, active, ticker)
	if err != nil {
		r.logger.Error("Failed to update symbol active flag",
			zap.Error(err),
			zap.String("ticker", ticker),
			zap.Bool("active", active))
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Delete removes a symbol; dependent rows cascade at the schema level
func (r *SymbolRepository) Delete(ctx context.Context, ticker string) (bool, error) {
	query := `DELETE FROM symbols WHERE ticker = $1`

	result, err := r.db.ExecContext(ctx, query, ticker)
	if err != nil {
		r.logger.Error("Failed to delete symbol",
			zap.Error(err),
			zap.String("ticker", ticker))
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
