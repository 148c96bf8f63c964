package backtest

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func makeBars(closes ...float64) []Bar {
	bars := make([]Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = Bar{
			Ts:     start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func zeroCostConfig() Config {
	return Config{
		TransactionCostRate: 0,
		MaxPositionRatio:    1.0,
		StopLossRatio:       0.05,
		RiskFreeRate:        0,
	}
}

func TestRunStopLoss(t *testing.T) {
	bars := makeBars(100, 95, 80)
	// RSI drives a BUY on the first bar only; the rest is up to the
	// stop-loss.
	bars[0].RSI14 = fp(25)

	result, err := Run(bars, StrategyRSI, 10000, zeroCostConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}

	buy := result.Trades[0]
	if buy.Action != SignalBuy || buy.Price != 100 || buy.Quantity != 100 {
		t.Errorf("unexpected buy trade: %+v", buy)
	}

	// 95 <= 100*(1-0.05): the boundary is inclusive, so the stop fires
	// on the second bar, not the third.
	sell := result.Trades[1]
	if sell.Action != SignalSell || sell.Price != 95 || sell.Quantity != 100 {
		t.Errorf("unexpected sell trade: %+v", sell)
	}
	if sell.Reason != ReasonStopLoss {
		t.Errorf("expected reason %s, got %s", ReasonStopLoss, sell.Reason)
	}

	if result.FinalCapital != 9500 {
		t.Errorf("expected final capital 9500, got %v", result.FinalCapital)
	}
	if result.TotalTrades != 1 {
		t.Errorf("expected 1 completed trade, got %d", result.TotalTrades)
	}
}

func TestRunEmptySeries(t *testing.T) {
	_, err := Run(nil, StrategyTechnicalSummary, 10000, DefaultConfig())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRunInvalidPrice(t *testing.T) {
	bars := makeBars(100, 100)
	bars[1].Close = -5

	_, err := Run(bars, StrategyTechnicalSummary, 10000, DefaultConfig())
	if err == nil {
		t.Fatal("expected error for non-positive price")
	}
}

func TestRunInvalidCapital(t *testing.T) {
	bars := makeBars(100)
	if _, err := Run(bars, StrategyTechnicalSummary, 0, DefaultConfig()); err == nil {
		t.Fatal("expected error for zero capital")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"negative cost", Config{TransactionCostRate: -0.1, MaxPositionRatio: 0.5, StopLossRatio: 0.05}, true},
		{"cost of one", Config{TransactionCostRate: 1, MaxPositionRatio: 0.5, StopLossRatio: 0.05}, true},
		{"zero position ratio", Config{MaxPositionRatio: 0, StopLossRatio: 0.05}, true},
		{"position ratio above one", Config{MaxPositionRatio: 1.5, StopLossRatio: 0.05}, true},
		{"zero stop loss", Config{MaxPositionRatio: 0.5, StopLossRatio: 0}, true},
		{"negative risk free", Config{MaxPositionRatio: 0.5, StopLossRatio: 0.05, RiskFreeRate: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunFinalSell(t *testing.T) {
	bars := makeBars(100, 102, 104)
	bars[0].Level = "STRONG_BUY"

	result, err := Run(bars, StrategyTechnicalSummary, 10000, zeroCostConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	last := result.Trades[len(result.Trades)-1]
	if last.Reason != ReasonFinalSell {
		t.Errorf("expected final sell, got reason %s", last.Reason)
	}
	if last.Price != 104 {
		t.Errorf("expected liquidation at 104, got %v", last.Price)
	}

	// Forced liquidation guarantees a flat finish and matched pairs.
	var buys, sells int
	for _, tr := range result.Trades {
		if tr.Action == SignalBuy {
			buys++
		} else {
			sells++
		}
	}
	if buys != sells {
		t.Errorf("expected matched buys and sells, got %d/%d", buys, sells)
	}
	if result.TotalTrades != buys {
		t.Errorf("expected %d completed trades, got %d", buys, result.TotalTrades)
	}
}

func TestRunCashNeverNegative(t *testing.T) {
	bars := makeBars(100, 50, 120, 40, 130, 60)
	for i := range bars {
		if i%2 == 0 {
			bars[i].Level = "STRONG_BUY"
		} else {
			bars[i].Level = "STRONG_SELL"
		}
	}

	cfg := DefaultConfig()
	result, err := Run(bars, StrategyTechnicalSummary, 10000, cfg)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	cash := result.InitialCapital
	var position int64
	for _, tr := range result.Trades {
		if tr.Action == SignalBuy {
			cash -= tr.Price*float64(tr.Quantity) + tr.TransactionCost
			position += tr.Quantity
		} else {
			cash += tr.Price*float64(tr.Quantity) - tr.TransactionCost
			position -= tr.Quantity
		}
		if cash < 0 {
			t.Fatalf("cash went negative after trade %+v", tr)
		}
	}
	if position != 0 {
		t.Errorf("expected flat final position, got %d", position)
	}
}

func TestRunIdempotent(t *testing.T) {
	bars := makeBars(100, 90, 110, 85, 120)
	bars[0].Level = "BUY"
	bars[2].Level = "SELL"
	bars[3].Level = "STRONG_BUY"

	first, err := Run(bars, StrategyTechnicalSummary, 10000, DefaultConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	second, err := Run(bars, StrategyTechnicalSummary, 10000, DefaultConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestRunCostMonotonic(t *testing.T) {
	bars := makeBars(100, 110, 105, 120, 115)
	bars[0].Level = "STRONG_BUY"
	bars[1].Level = "STRONG_SELL"
	bars[2].Level = "STRONG_BUY"
	bars[3].Level = "STRONG_SELL"

	prevReturn := math.Inf(1)
	for _, rate := range []float64{0, 0.001, 0.005, 0.01} {
		cfg := zeroCostConfig()
		cfg.TransactionCostRate = rate
		result, err := Run(bars, StrategyTechnicalSummary, 100000, cfg)
		if err != nil {
			t.Fatalf("Run returned error at rate %v: %v", rate, err)
		}
		if result.TotalReturnPct > prevReturn {
			t.Errorf("return increased from %v to %v when cost rate rose to %v",
				prevReturn, result.TotalReturnPct, rate)
		}
		prevReturn = result.TotalReturnPct
	}
}

func TestRunSkipsUnaffordableBuy(t *testing.T) {
	bars := makeBars(50000, 51000)
	bars[0].Level = "STRONG_BUY"

	// Capital covers no whole share at the max position ratio.
	result, err := Run(bars, StrategyTechnicalSummary, 10000, DefaultConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(result.Trades))
	}
	if result.FinalCapital != 10000 {
		t.Errorf("expected untouched capital, got %v", result.FinalCapital)
	}
}

func TestRunQuantityIgnoresPositionFraction(t *testing.T) {
	// The position_sizing strategy attaches a 0.6 fraction on a regular
	// BUY level, but order quantity always follows the fixed
	// floor(cash*maxPositionRatio/price) formula.
	bars := makeBars(100, 100, 100)
	bars[0].Level = "BUY"

	decisions := StrategyPositionSizing.Signals(bars)
	if decisions[0].Signal != SignalBuy || decisions[0].PositionSize != 0.6 {
		t.Fatalf("expected 0.6 size buy decision, got %+v", decisions[0])
	}

	result, err := Run(bars, StrategyPositionSizing, 10000, zeroCostConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Trades) == 0 {
		t.Fatal("expected a buy trade")
	}
	if result.Trades[0].Quantity != 100 {
		t.Errorf("expected quantity 100, got %d", result.Trades[0].Quantity)
	}
}

func TestRunEquityCurveLength(t *testing.T) {
	bars := makeBars(100, 101, 102, 103)
	result, err := Run(bars, StrategyTechnicalSummary, 10000, DefaultConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.EquityCurve) != len(bars) {
		t.Errorf("expected %d equity points, got %d", len(bars), len(result.EquityCurve))
	}
}
