package backtest

import (
	"math"
	"testing"
	"time"
)

func TestBuyHoldReturn(t *testing.T) {
	bars := makeBars(100, 150)

	// shares = floor((1000 - 1) / 100) = 9; sale 9*150 = 1350 minus
	// exit cost 1.35 leaves 1348.65, a 34.865% return.
	got := buyHoldReturn(bars, 1000, 0.001)
	if math.Abs(got-34.865) > 1e-9 {
		t.Errorf("expected 34.865, got %v", got)
	}
}

func TestBuyHoldReturnNoAffordableShares(t *testing.T) {
	bars := makeBars(5000, 6000)
	if got := buyHoldReturn(bars, 1000, 0.001); got != 0 {
		t.Errorf("expected 0 when no shares affordable, got %v", got)
	}
}

func TestWinLossTradesFIFO(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		{Timestamp: ts, Action: SignalBuy, Price: 100, Quantity: 10, TransactionCost: 1},
		{Timestamp: ts, Action: SignalSell, Price: 110, Quantity: 10, TransactionCost: 1},
		{Timestamp: ts, Action: SignalBuy, Price: 100, Quantity: 10, TransactionCost: 1},
		{Timestamp: ts, Action: SignalSell, Price: 100, Quantity: 10, TransactionCost: 1},
	}

	winning, losing := winLossTrades(trades)
	if winning != 1 {
		t.Errorf("expected 1 winning trade, got %d", winning)
	}
	// The flat round trip loses on commissions alone.
	if losing != 1 {
		t.Errorf("expected 1 losing trade, got %d", losing)
	}
}

func TestWinLossTradesUnmatchedSell(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		{Timestamp: ts, Action: SignalSell, Price: 110, Quantity: 10},
	}

	winning, losing := winLossTrades(trades)
	if winning != 0 || losing != 0 {
		t.Errorf("unmatched sell must not count, got %d/%d", winning, losing)
	}
}

func TestMaxDrawdown(t *testing.T) {
	curve := []EquityPoint{
		{Value: 100}, {Value: 120}, {Value: 60}, {Value: 90},
	}

	// Deepest decline: 120 down to 60, i.e. -50%.
	got := maxDrawdown(curve)
	if math.Abs(got-(-50)) > 1e-9 {
		t.Errorf("expected -50, got %v", got)
	}
}

func TestMaxDrawdownEmptyAndRising(t *testing.T) {
	if got := maxDrawdown(nil); got != 0 {
		t.Errorf("empty curve: expected 0, got %v", got)
	}

	rising := []EquityPoint{{Value: 100}, {Value: 110}, {Value: 120}}
	if got := maxDrawdown(rising); got != 0 {
		t.Errorf("monotonic curve: expected 0, got %v", got)
	}
}

func TestSharpeRatioDegenerate(t *testing.T) {
	if got := sharpeRatio([]EquityPoint{{Value: 100}}, 0.03); got != 0 {
		t.Errorf("single point: expected 0, got %v", got)
	}

	flat := []EquityPoint{{Value: 100}, {Value: 100}, {Value: 100}}
	if got := sharpeRatio(flat, 0.03); got != 0 {
		t.Errorf("zero variance: expected 0, got %v", got)
	}
}

func TestSharpeRatioSign(t *testing.T) {
	up := []EquityPoint{{Value: 100}, {Value: 102}, {Value: 103}, {Value: 106}}
	if got := sharpeRatio(up, 0); got <= 0 {
		t.Errorf("rising curve with zero risk-free rate: expected positive Sharpe, got %v", got)
	}

	down := []EquityPoint{{Value: 100}, {Value: 97}, {Value: 96}, {Value: 92}}
	if got := sharpeRatio(down, 0); got >= 0 {
		t.Errorf("falling curve: expected negative Sharpe, got %v", got)
	}
}

func TestEvaluateCompletedTradeCount(t *testing.T) {
	bars := makeBars(100, 110, 90, 95)
	bars[0].Level = "STRONG_BUY"
	bars[1].Level = "STRONG_SELL"
	bars[2].Level = "STRONG_BUY"

	result, err := Run(bars, StrategyTechnicalSummary, 100000, zeroCostConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var buys, sells int
	for _, tr := range result.Trades {
		if tr.Action == SignalBuy {
			buys++
		} else {
			sells++
		}
	}
	want := buys
	if sells < buys {
		want = sells
	}
	if result.TotalTrades != want {
		t.Errorf("expected %d completed trades, got %d", want, result.TotalTrades)
	}
	if result.WinningTrades+result.LosingTrades != result.TotalTrades {
		t.Errorf("win/loss classification out of sync with completed pairs: %d+%d != %d",
			result.WinningTrades, result.LosingTrades, result.TotalTrades)
	}
}
