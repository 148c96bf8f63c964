package model

import (
	"time"
)

// Technical summary levels
const (
	LevelStrongBuy  = "STRONG_BUY"
	LevelBuy        = "BUY"
	LevelNeutral    = "NEUTRAL"
	LevelSell       = "SELL"
	LevelStrongSell = "STRONG_SELL"
)

// Summary represents one aggregated technical sentiment row
type Summary struct {
	ID         int       `json:"id" db:"id"`
	SymbolID   int       `json:"symbol_id" db:"symbol_id"`
	Timeframe  string    `json:"timeframe" db:"timeframe"`
	Ts         time.Time `json:"ts" db:"ts"`
	BuyCnt     int       `json:"buy_cnt" db:"buy_cnt"`
	SellCnt    int       `json:"sell_cnt" db:"sell_cnt"`
	NeutralCnt int       `json:"neutral_cnt" db:"neutral_cnt"`
	Level      string    `json:"level" db:"level"`
	ScoredAt   time.Time `json:"scored_at" db:"scored_at"`
}

// LevelChange describes a transition of the summary level between two
// consecutive scoring runs for a symbol/timeframe
type LevelChange struct {
	Ticker     string    `json:"ticker"`
	Timeframe  string    `json:"timeframe"`
	Ts         time.Time `json:"ts"`
	PrevLevel  *string   `json:"prev_level"`
	Level      string    `json:"level"`
	BuyCnt     int       `json:"buy_cnt"`
	SellCnt    int       `json:"sell_cnt"`
	NeutralCnt int       `json:"neutral_cnt"`
}

// AlertLog records a dispatched level-change notification
type AlertLog struct {
	ID        int       `json:"id" db:"id"`
	SymbolID  int       `json:"symbol_id" db:"symbol_id"`
	Timeframe string    `json:"timeframe" db:"timeframe"`
	Ts        time.Time `json:"ts" db:"ts"`
	PrevLevel *string   `json:"prev_level" db:"prev_level"`
	Level     string    `json:"level" db:"level"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
}
