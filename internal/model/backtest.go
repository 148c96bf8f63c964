package model

import (
	"time"
)

// BacktestRequest is the request body for POST /backtest
type BacktestRequest struct {
	Ticker         string  `json:"ticker" binding:"required"`
	Timeframe      string  `json:"timeframe"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	InitialCapital float64 `json:"initial_capital"`
	Strategy       string  `json:"strategy"`
}

// BacktestCompareRequest runs several strategies over the same series
type BacktestCompareRequest struct {
	Ticker         string   `json:"ticker" binding:"required"`
	Timeframe      string   `json:"timeframe"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	InitialCapital float64  `json:"initial_capital"`
	Strategies     []string `json:"strategies"`
}

// TradeResult is one executed order in the backtest response
type TradeResult struct {
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	Price           float64   `json:"price"`
	Quantity        int64     `json:"quantity"`
	Reason          string    `json:"reason"`
	TransactionCost float64   `json:"transaction_cost"`
}

// BacktestResponse is the full result of one backtest run
type BacktestResponse struct {
	Ticker               string        `json:"ticker"`
	Strategy             string        `json:"strategy"`
	Timeframe            string        `json:"timeframe"`
	StartDate            time.Time     `json:"start_date"`
	EndDate              time.Time     `json:"end_date"`
	InitialCapital       float64       `json:"initial_capital"`
	FinalCapital         float64       `json:"final_capital"`
	TotalReturnPct       float64       `json:"total_return_pct"`
	BuyHoldReturnPct     float64       `json:"buy_hold_return_pct"`
	Alpha                float64       `json:"alpha"`
	TotalTrades          int           `json:"total_trades"`
	WinningTrades        int           `json:"winning_trades"`
	LosingTrades         int           `json:"losing_trades"`
	WinRate              float64       `json:"win_rate"`
	MaxDrawdown          float64       `json:"max_drawdown"`
	SharpeRatio          float64       `json:"sharpe_ratio"`
	TotalTransactionCost float64       `json:"total_transaction_cost"`
	Trades               []TradeResult `json:"trades"`
}

// StrategyInfo describes one selectable backtest strategy
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Risk        string `json:"risk"`
}
