package model

import (
	"time"
)

// IndicatorRow represents one row of the indicators table. Fields are
// nullable: insufficient history leaves an indicator unset, never zero.
type IndicatorRow struct {
	ID         int       `json:"id" db:"id"`
	SymbolID   int       `json:"symbol_id" db:"symbol_id"`
	Timeframe  string    `json:"timeframe" db:"timeframe"`
	Ts         time.Time `json:"ts" db:"ts"`
	RSI14      *float64  `json:"rsi14" db:"rsi14"`
	StochK     *float64  `json:"stoch_k" db:"stoch_k"`
	StochD     *float64  `json:"stoch_d" db:"stoch_d"`
	MACD       *float64  `json:"macd" db:"macd"`
	MACDSignal *float64  `json:"macd_signal" db:"macd_signal"`
	ADX14      *float64  `json:"adx14" db:"adx14"`
	CCI14      *float64  `json:"cci14" db:"cci14"`
	ATR14      *float64  `json:"atr14" db:"atr14"`
	WillR14    *float64  `json:"willr14" db:"willr14"`
	HighLow14  *float64  `json:"highlow14" db:"highlow14"`
	UltOsc     *float64  `json:"ultosc" db:"ultosc"`
	ROC        *float64  `json:"roc" db:"roc"`
	BullBear   *float64  `json:"bull_bear" db:"bull_bear"`
	CalcAt     time.Time `json:"calc_at" db:"calc_at"`
}

// MovingAvgRow represents one row of the moving_avgs table
type MovingAvgRow struct {
	ID        int       `json:"id" db:"id"`
	SymbolID  int       `json:"symbol_id" db:"symbol_id"`
	Timeframe string    `json:"timeframe" db:"timeframe"`
	Ts        time.Time `json:"ts" db:"ts"`
	MA5       *float64  `json:"ma5" db:"ma5"`
	EMA5      *float64  `json:"ema5" db:"ema5"`
	MA10      *float64  `json:"ma10" db:"ma10"`
	EMA10     *float64  `json:"ema10" db:"ema10"`
	MA20      *float64  `json:"ma20" db:"ma20"`
	EMA20     *float64  `json:"ema20" db:"ema20"`
	MA50      *float64  `json:"ma50" db:"ma50"`
	MA100     *float64  `json:"ma100" db:"ma100"`
	MA200     *float64  `json:"ma200" db:"ma200"`
	CalcAt    time.Time `json:"calc_at" db:"calc_at"`
}

// TechnicalSignal is one indicator's value with its individual vote
type TechnicalSignal struct {
	Name   string   `json:"name"`
	Value  *float64 `json:"value"`
	Signal string   `json:"signal"`
}

// TechnicalSignalSummary is the per-indicator vote breakdown for the
// latest bar of a symbol/timeframe
type TechnicalSignalSummary struct {
	Ticker      string            `json:"ticker"`
	Timeframe   string            `json:"timeframe"`
	Ts          time.Time         `json:"ts"`
	ClosePrice  float64           `json:"close_price"`
	Oscillators []TechnicalSignal `json:"oscillators"`
	MovingAvgs  []TechnicalSignal `json:"moving_avgs"`
	BuyCount    int               `json:"buy_count"`
	SellCount   int               `json:"sell_count"`
	NeutralCnt  int               `json:"neutral_count"`
	Level       string            `json:"level"`
}
