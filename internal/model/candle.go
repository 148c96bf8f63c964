package model

import (
	"time"
)

// Candle represents one OHLCV bar stored in candles_raw
type Candle struct {
	ID        int       `json:"id" db:"id"`
	SymbolID  int       `json:"symbol_id" db:"symbol_id"`
	Timeframe string    `json:"timeframe" db:"timeframe"`
	Ts        time.Time `json:"ts" db:"ts"`
	Open      float64   `json:"open" db:"open"`
	High      float64   `json:"high" db:"high"`
	Low       float64   `json:"low" db:"low"`
	Close     float64   `json:"close" db:"close"`
	Volume    float64   `json:"volume" db:"volume"`
}

// OHLCV is a bare price bar before it is attached to a symbol/timeframe,
// as returned by the market data provider
type OHLCV struct {
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// DataSufficiency describes whether a symbol/timeframe pair holds enough
// recent candles for reliable indicator calculation
type DataSufficiency struct {
	Timeframe    string     `json:"timeframe"`
	CandleCount  int        `json:"candle_count"`
	MinRequired  int        `json:"min_required"`
	LatestTs     *time.Time `json:"latest_ts,omitempty"`
	MaxAgeDays   int        `json:"max_age_days"`
	Sufficient   bool       `json:"sufficient"`
	Fresh        bool       `json:"fresh"`
	NeedsRefresh bool       `json:"needs_refresh"`
}
