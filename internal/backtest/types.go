// Package backtest simulates trading strategies over historical candle,
// indicator and summary data through a single-position long-only
// portfolio with transaction costs and stop-losses.
package backtest

import (
	"fmt"
	"time"
)

// Signal is one strategy decision for one bar.
type Signal string

const (
	SignalHold Signal = "HOLD"
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// Trade reason tags beyond the plain signal name.
const (
	ReasonStopLoss  = "STOP_LOSS"
	ReasonFinalSell = "FINAL_SELL"
)

// Bar is one merged row of price, indicator and summary data. The price
// fields are always present; indicator and summary fields are nil when
// that row predates sufficient history. Level is empty when no summary
// exists for the bar.
type Bar struct {
	Ts         time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	RSI14      *float64
	MACD       *float64
	MACDSignal *float64
	StochK     *float64
	CCI14      *float64
	ROC        *float64
	Level      string
}

// Decision annotates a bar with the strategy's signal. PositionSize is
// the fraction of capital a size-aware strategy would commit; plain
// strategies leave it at 1.
type Decision struct {
	Signal       Signal
	PositionSize float64
}

// Config holds the immutable cost and risk parameters for one run.
type Config struct {
	TransactionCostRate float64
	MaxPositionRatio    float64
	StopLossRatio       float64
	RiskFreeRate        float64
}

// DefaultConfig returns the standard cost and risk parameters.
func DefaultConfig() Config {
	return Config{
		TransactionCostRate: 0.0015,
		MaxPositionRatio:    0.95,
		StopLossRatio:       0.05,
		RiskFreeRate:        0.03,
	}
}

// Validate checks the parameter ranges before a run starts.
func (c Config) Validate() error {
	if c.TransactionCostRate < 0 || c.TransactionCostRate >= 1 {
		return fmt.Errorf("transaction cost rate must be in [0, 1): %v", c.TransactionCostRate)
	}
	if c.MaxPositionRatio <= 0 || c.MaxPositionRatio > 1 {
		return fmt.Errorf("max position ratio must be in (0, 1]: %v", c.MaxPositionRatio)
	}
	if c.StopLossRatio <= 0 || c.StopLossRatio > 1 {
		return fmt.Errorf("stop loss ratio must be in (0, 1]: %v", c.StopLossRatio)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk free rate must be non-negative: %v", c.RiskFreeRate)
	}
	return nil
}

// Trade is one executed order, appended to the ledger in fill order.
type Trade struct {
	Timestamp       time.Time
	Action          Signal
	Price           float64
	Quantity        int64
	Reason          string
	TransactionCost float64
}

// EquityPoint is the portfolio value after processing one bar.
type EquityPoint struct {
	Ts    time.Time
	Value float64
}

// Result aggregates the outcome of one backtest run.
type Result struct {
	StartDate            time.Time
	EndDate              time.Time
	InitialCapital       float64
	FinalCapital         float64
	TotalReturnPct       float64
	BuyHoldReturnPct     float64
	Alpha                float64
	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	WinRate              float64
	MaxDrawdown          float64
	SharpeRatio          float64
	TotalTransactionCost float64
	Trades               []Trade
	EquityCurve          []EquityPoint
}
