package model

import (
	"time"

	"github.com/lib/pq"
)

// Fill job statuses
const (
	FillStatusPending   = "PENDING"
	FillStatusRunning   = "RUNNING"
	FillStatusCompleted = "COMPLETED"
	FillStatusFailed    = "FAILED"
)

// FillJob tracks one background data-fill run for a symbol
type FillJob struct {
	ID          int            `json:"id" db:"id"`
	Ticker      string         `json:"ticker" db:"ticker"`
	Timeframes  pq.StringArray `json:"timeframes" db:"timeframes"`
	Status      string         `json:"status" db:"status"`
	Retries     int            `json:"retries" db:"retries"`
	Error       *string        `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// FillRequest is the request body for data-fill endpoints
type FillRequest struct {
	Timeframes []string `json:"timeframes"`
	Period     string   `json:"period"`
}
