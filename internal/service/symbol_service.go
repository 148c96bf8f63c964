package service

import (
	"context"
	"errors"
	"strings"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/repository"

	"go.uber.org/zap"
)

// Domain errors surfaced to handlers
var (
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrSymbolExists     = errors.New("symbol already exists")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

// SymbolService handles symbol registration and lifecycle
type SymbolService struct {
	symbolRepo *repository.SymbolRepository
	logger     *zap.Logger
}

// NewSymbolService creates a new symbol service
func NewSymbolService(symbolRepo *repository.SymbolRepository, logger *zap.Logger) *SymbolService {
	return &SymbolService{
		symbolRepo: symbolRepo,
		logger:     logger,
	}
}

// NormalizeTicker uppercases and trims a ticker
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// GetAllSymbols retrieves all registered symbols
func (s *SymbolService) GetAllSymbols(ctx context.Context) ([]model.Symbol, error) {
	return s.symbolRepo.GetAll(ctx)
}

// GetActiveSymbols retrieves all symbols currently tracked by the scheduler
func (s *SymbolService) GetActiveSymbols(ctx context.Context) ([]model.Symbol, error) {
	return s.symbolRepo.GetActive(ctx)
}

// GetSymbol retrieves one symbol by ticker
func (s *SymbolService) GetSymbol(ctx context.Context, ticker string) (*model.Symbol, error) {
	symbol, err := s.symbolRepo.GetByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, ErrSymbolNotFound
	}
	return symbol, nil
}

// CreateSymbol registers a new symbol for tracking
func (s *SymbolService) CreateSymbol(ctx context.Context, symbol *model.Symbol) (int, error) {
	symbol.Ticker = NormalizeTicker(symbol.Ticker)
	if symbol.Ticker == "" {
		return 0, errors.New("ticker is required")
	}
	if symbol.Name == "" {
		symbol.Name = symbol.Ticker
	}

	existing, err := s.symbolRepo.GetByTicker(ctx, symbol.Ticker)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, ErrSymbolExists
	}

	symbol.Active = true

	id, err := s.symbolRepo.Create(ctx, symbol)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Registered symbol",
		zap.String("ticker", symbol.Ticker),
		zap.Int("symbol_id", id))

	return id, nil
}

// SetActive enables or disables scheduled tracking for a symbol
func (s *SymbolService) SetActive(ctx context.Context, ticker string, active bool) error {
	updated, err := s.symbolRepo.SetActive(ctx, NormalizeTicker(ticker), active)
	if err != nil {
		return err
	}
	if !updated {
		return ErrSymbolNotFound
	}
	return nil
}

// DeleteSymbol removes a symbol and all of its derived data
func (s *SymbolService) DeleteSymbol(ctx context.Context, ticker string) error {
	deleted, err := s.symbolRepo.Delete(ctx, NormalizeTicker(ticker))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSymbolNotFound
	}

	s.logger.Info("Deleted symbol", zap.String("ticker", NormalizeTicker(ticker)))
	return nil
}
