package service

import (
	"testing"
	"time"

	"github.com/anc5557/ChartBeacon/internal/backtest"
	"github.com/anc5557/ChartBeacon/internal/model"
)

func TestParseDateRange(t *testing.T) {
	start, end, err := parseDateRange("2024-01-01", "2024-06-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start == nil || end == nil {
		t.Fatal("expected both bounds")
	}
	if !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	// End bound covers the whole day
	if end.Before(time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC)) {
		t.Errorf("end bound not extended to end of day: %v", end)
	}
}

func TestParseDateRangeOpenBounds(t *testing.T) {
	start, end, err := parseDateRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != nil || end != nil {
		t.Error("expected nil bounds for empty inputs")
	}
}

func TestParseDateRangeInvalid(t *testing.T) {
	if _, _, err := parseDateRange("01/02/2024", ""); err == nil {
		t.Error("expected error for malformed start date")
	}
	if _, _, err := parseDateRange("", "yesterday"); err == nil {
		t.Error("expected error for malformed end date")
	}
	if _, _, err := parseDateRange("2024-06-30", "2024-01-01"); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestApplyBacktestDefaults(t *testing.T) {
	req := &model.BacktestRequest{Ticker: "AAPL"}
	applyBacktestDefaults(req)

	if req.Timeframe != model.Timeframe1d {
		t.Errorf("timeframe = %q, want %q", req.Timeframe, model.Timeframe1d)
	}
	if req.Strategy != "technical_summary" {
		t.Errorf("strategy = %q, want technical_summary", req.Strategy)
	}
	if req.InitialCapital != 100000 {
		t.Errorf("initial capital = %v, want 100000", req.InitialCapital)
	}
}

func TestApplyBacktestDefaultsKeepsExplicitValues(t *testing.T) {
	req := &model.BacktestRequest{
		Ticker:         "AAPL",
		Timeframe:      model.Timeframe1h,
		Strategy:       "rsi",
		InitialCapital: 5000,
	}
	applyBacktestDefaults(req)

	if req.Timeframe != model.Timeframe1h || req.Strategy != "rsi" || req.InitialCapital != 5000 {
		t.Errorf("explicit values overwritten: %+v", req)
	}
}

func TestBuildBacktestResponse(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	result := &backtest.Result{
		StartDate:      ts,
		EndDate:        ts.AddDate(0, 1, 0),
		InitialCapital: 100000,
		FinalCapital:   110000,
		TotalReturnPct: 10,
		TotalTrades:    1,
		Trades: []backtest.Trade{
			{
				Timestamp:       ts,
				Action:          backtest.SignalBuy,
				Price:           50,
				Quantity:        100,
				Reason:          "BUY",
				TransactionCost: 7.5,
			},
		},
	}

	resp := buildBacktestResponse("AAPL", "rsi", model.Timeframe1d, result)

	if resp.Ticker != "AAPL" || resp.Strategy != "rsi" || resp.Timeframe != model.Timeframe1d {
		t.Errorf("identity fields wrong: %+v", resp)
	}
	if resp.FinalCapital != 110000 || resp.TotalReturnPct != 10 {
		t.Errorf("metric fields wrong: %+v", resp)
	}
	if len(resp.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(resp.Trades))
	}
	if resp.Trades[0].Action != "BUY" || resp.Trades[0].Quantity != 100 {
		t.Errorf("trade mapping wrong: %+v", resp.Trades[0])
	}
}

func TestNormalizeTicker(t *testing.T) {
	cases := map[string]string{
		" aapl ":    "AAPL",
		"msft":      "MSFT",
		"BRK-B":     "BRK-B",
		"005930.KS": "005930.KS",
	}
	for in, want := range cases {
		if got := NormalizeTicker(in); got != want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", in, got, want)
		}
	}
}
