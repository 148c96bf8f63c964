package model

import (
	"time"
)

// Symbol represents a tracked market symbol
type Symbol struct {
	ID        int        `json:"id" db:"id"`
	Ticker    string     `json:"ticker" db:"ticker" binding:"required"`
	Name      string     `json:"name" db:"name"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Timeframe identifiers supported for candle aggregation
const (
	Timeframe5m  = "5m"
	Timeframe1h  = "1h"
	Timeframe1d  = "1d"
	Timeframe5d  = "5d"
	Timeframe1mo = "1mo"
	Timeframe3mo = "3mo"
)

// AllTimeframes lists every supported timeframe in refresh order
var AllTimeframes = []string{
	Timeframe5m,
	Timeframe1h,
	Timeframe1d,
	Timeframe5d,
	Timeframe1mo,
	Timeframe3mo,
}

// TimeframeMinCandles is the minimum candle count considered sufficient
// for indicator calculation per timeframe
var TimeframeMinCandles = map[string]int{
	Timeframe5m:  200,
	Timeframe1h:  200,
	Timeframe1d:  200,
	Timeframe5d:  52,
	Timeframe1mo: 24,
	Timeframe3mo: 8,
}

// TimeframeMaxAgeDays is the maximum allowed staleness of the latest
// candle per timeframe before the data is considered outdated
var TimeframeMaxAgeDays = map[string]int{
	Timeframe5m:  5,
	Timeframe1h:  5,
	Timeframe1d:  7,
	Timeframe5d:  10,
	Timeframe1mo: 40,
	Timeframe3mo: 100,
}

// IsValidTimeframe reports whether the given timeframe is supported
func IsValidTimeframe(timeframe string) bool {
	for _, tf := range AllTimeframes {
		if tf == timeframe {
			return true
		}
	}
	return false
}
