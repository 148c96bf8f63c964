package backtest

import (
	"math"
	"testing"
)

// trendingBars builds n bars whose closes start at 100 and compound by
// rate each bar, long enough for the 200-bar rolling windows to fill.
func trendingBars(n int, rate float64) []Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 * math.Pow(1+rate, float64(i))
	}
	return makeBars(closes...)
}

func signalsOf(decisions []Decision) []Signal {
	out := make([]Signal, len(decisions))
	for i, d := range decisions {
		out[i] = d.Signal
	}
	return out
}

func assertSignals(t *testing.T, got []Decision, want []Signal) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d decisions, got %d", len(want), len(got))
	}
	for i, s := range signalsOf(got) {
		if s != want[i] {
			t.Errorf("bar %d: expected %s, got %s", i, want[i], s)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for _, entry := range Catalogue() {
		s, err := ParseStrategy(entry.Name)
		if err != nil {
			t.Errorf("ParseStrategy(%q) returned error: %v", entry.Name, err)
			continue
		}
		if s.String() != entry.Name {
			t.Errorf("round trip mismatch: %q != %q", s.String(), entry.Name)
		}
	}

	if _, err := ParseStrategy("martingale"); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}

func TestRSISignals(t *testing.T) {
	bars := makeBars(100, 100, 100)
	bars[0].RSI14 = fp(35)
	bars[1].RSI14 = fp(25)
	bars[2].RSI14 = fp(72)

	got := StrategyRSI.Signals(bars)
	assertSignals(t, got, []Signal{SignalHold, SignalBuy, SignalSell})
}

func TestRSISignalsMissingValues(t *testing.T) {
	bars := makeBars(100, 100)
	got := StrategyRSI.Signals(bars)
	assertSignals(t, got, []Signal{SignalHold, SignalHold})
}

func TestSummarySignals(t *testing.T) {
	bars := makeBars(100, 100, 100, 100, 100, 100)
	bars[0].Level = "STRONG_BUY"
	bars[1].Level = "BUY"
	bars[2].Level = "NEUTRAL"
	bars[3].Level = "SELL"
	bars[4].Level = "STRONG_SELL"
	// bars[5] has no summary row at all.

	got := StrategyTechnicalSummary.Signals(bars)
	assertSignals(t, got, []Signal{
		SignalBuy, SignalBuy, SignalHold, SignalSell, SignalSell, SignalHold,
	})
}

func TestMACDSignals(t *testing.T) {
	bars := makeBars(100, 100, 100, 100)
	// Histogram: n/a, -1, +1, -0.5: golden cross at bar 2, dead cross
	// at bar 3. Bar 1 has no previous histogram, so it holds.
	bars[1].MACD, bars[1].MACDSignal = fp(1), fp(2)
	bars[2].MACD, bars[2].MACDSignal = fp(3), fp(2)
	bars[3].MACD, bars[3].MACDSignal = fp(1.5), fp(2)

	got := StrategyMACD.Signals(bars)
	assertSignals(t, got, []Signal{SignalHold, SignalHold, SignalBuy, SignalSell})
}

func TestMomentumReversalSignals(t *testing.T) {
	bars := makeBars(100, 100, 100, 100)

	// All three oscillators at buy extremes.
	bars[0].RSI14, bars[0].StochK, bars[0].CCI14 = fp(20), fp(15), fp(-200)
	// All three at sell extremes.
	bars[1].RSI14, bars[1].StochK, bars[1].CCI14 = fp(80), fp(90), fp(200)
	// Two of three is not enough.
	bars[2].RSI14, bars[2].StochK, bars[2].CCI14 = fp(20), fp(15), fp(0)
	// Missing oscillator holds.
	bars[3].RSI14, bars[3].StochK = fp(20), fp(15)

	got := StrategyMomentumReversal.Signals(bars)
	assertSignals(t, got, []Signal{SignalBuy, SignalSell, SignalHold, SignalHold})
}

func TestTrendFilteredWithoutHistory(t *testing.T) {
	// With no moving average history the uptrend filter cannot engage,
	// so base signals pass through.
	bars := makeBars(100, 100)
	bars[0].Level = "BUY"
	bars[1].Level = "SELL"

	got := StrategyTrendFiltered.Signals(bars)
	assertSignals(t, got, []Signal{SignalBuy, SignalSell})
}

func TestTrendFilteredSuppressesSellInUptrend(t *testing.T) {
	// 21 rising bars: the 20-bar return exceeds 10%, which marks a
	// strong uptrend and suppresses the sell on the last bar.
	closes := make([]float64, 21)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := makeBars(closes...)
	bars[20].Level = "SELL"

	got := StrategyTrendFiltered.Signals(bars)
	if got[20].Signal != SignalHold {
		t.Errorf("expected sell suppressed in uptrend, got %s", got[20].Signal)
	}
}

func TestMarketAdaptiveRangeRequiresStrongLevel(t *testing.T) {
	// Without MA history the regime defaults to ranging, where only
	// strong levels trade.
	bars := makeBars(100, 100)
	bars[0].Level = "BUY"
	bars[1].Level = "STRONG_BUY"

	got := StrategyMarketAdaptive.Signals(bars)
	assertSignals(t, got, []Signal{SignalHold, SignalBuy})
}

func TestMarketAdaptiveStrongBullBuysOnly(t *testing.T) {
	// 220 bars compounding 1% per bar: close > MA20 > MA50 > MA200 and
	// the close sits far above the 50-bar mean, so the regime reads
	// strong bull. Regular buys trade; sells are ignored.
	bars := trendingBars(220, 0.01)
	bars[218].Level = "SELL"
	bars[219].Level = "BUY"

	got := StrategyMarketAdaptive.Signals(bars)
	if got[218].Signal != SignalHold {
		t.Errorf("expected sell ignored in strong bull, got %s", got[218].Signal)
	}
	if got[219].Signal != SignalBuy {
		t.Errorf("expected buy in strong bull, got %s", got[219].Signal)
	}
}

func TestMarketAdaptiveBearAllowsBothSides(t *testing.T) {
	// 220 bars decaying 1% per bar: close < MA50 < MA200 marks a bear
	// market, where regular levels trade in both directions.
	bars := trendingBars(220, -0.01)
	bars[218].Level = "BUY"
	bars[219].Level = "SELL"

	got := StrategyMarketAdaptive.Signals(bars)
	if got[218].Signal != SignalBuy {
		t.Errorf("expected regular buy allowed in bear market, got %s", got[218].Signal)
	}
	if got[219].Signal != SignalSell {
		t.Errorf("expected regular sell allowed in bear market, got %s", got[219].Signal)
	}
}

func TestLowFrequencyCooldown(t *testing.T) {
	bars := makeBars(100, 100, 100, 100, 100)
	for i := range bars {
		bars[i].Level = "STRONG_SELL"
	}

	got := StrategyLowFrequency.Signals(bars)

	// Without MA history the trend reads down, so the first strong
	// sell fires; the cooldown then blocks everything after it.
	if got[0].Signal != SignalSell {
		t.Errorf("expected first bar to sell, got %s", got[0].Signal)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Signal != SignalHold {
			t.Errorf("bar %d: expected cooldown hold, got %s", i, got[i].Signal)
		}
	}
}

func TestADXFilteredHoldsWithoutTrendStrength(t *testing.T) {
	bars := makeBars(100, 100, 100)
	for i := range bars {
		bars[i].Level = "STRONG_BUY"
	}

	// Too little history for the trend estimate: every bar holds.
	got := StrategyADXFiltered.Signals(bars)
	assertSignals(t, got, []Signal{SignalHold, SignalHold, SignalHold})
}

func TestPositionSizingFractions(t *testing.T) {
	bars := makeBars(100, 100, 100)
	bars[0].Level = "STRONG_BUY"
	bars[1].Level = "BUY"
	bars[2].Level = "NEUTRAL"

	got := StrategyPositionSizing.Signals(bars)

	if got[0].Signal != SignalBuy || got[0].PositionSize != 1.0 {
		t.Errorf("strong level: expected full size buy, got %+v", got[0])
	}
	if got[1].Signal != SignalBuy || got[1].PositionSize != 0.6 {
		t.Errorf("regular level: expected 0.6 size buy, got %+v", got[1])
	}
	if got[2].Signal != SignalHold {
		t.Errorf("neutral level: expected hold, got %+v", got[2])
	}
}

func TestBuyHoldFirstStateful(t *testing.T) {
	bars := makeBars(100, 100, 100, 100)
	bars[0].Level = "BUY"
	bars[1].Level = "BUY"
	bars[2].Level = "STRONG_SELL"
	bars[3].Level = "BUY"

	got := StrategyBuyHoldFirst.Signals(bars)

	// The first buy opens the position; later buy levels are ignored,
	// and the strong sell cannot fire without the price sitting far
	// below its 200-bar average.
	assertSignals(t, got, []Signal{SignalBuy, SignalHold, SignalHold, SignalHold})
}

func TestBuyHoldFirstSellsOnStrongWeakness(t *testing.T) {
	// 200 flat bars fill the 200-bar average near 100, then the price
	// collapses to 80 (more than 10% under it) on a strong sell.
	closes := make([]float64, 201)
	for i := range closes {
		closes[i] = 100
	}
	closes[200] = 80
	bars := makeBars(closes...)
	bars[0].Level = "BUY"
	bars[200].Level = "STRONG_SELL"

	got := StrategyBuyHoldFirst.Signals(bars)
	if got[0].Signal != SignalBuy {
		t.Errorf("expected opening buy, got %s", got[0].Signal)
	}
	for i := 1; i < 200; i++ {
		if got[i].Signal != SignalHold {
			t.Fatalf("bar %d: expected hold while position is kept, got %s", i, got[i].Signal)
		}
	}
	if got[200].Signal != SignalSell {
		t.Errorf("expected sell on strong weakness below the 200-bar average, got %s", got[200].Signal)
	}
}

func TestTrendFilteredSuppressesSellOnMAAlignment(t *testing.T) {
	// A gentle 0.1%-per-bar climb keeps the 20-bar return well under
	// 10%, so only the close > MA50 > MA200 alignment marks the uptrend
	// that suppresses the sell. Buys still pass through.
	bars := trendingBars(220, 0.001)
	bars[218].Level = "BUY"
	bars[219].Level = "SELL"

	got := StrategyTrendFiltered.Signals(bars)
	if got[218].Signal != SignalBuy {
		t.Errorf("expected buy to pass through, got %s", got[218].Signal)
	}
	if got[219].Signal != SignalHold {
		t.Errorf("expected sell suppressed by MA alignment, got %s", got[219].Signal)
	}
}

func TestSignalsNoLookahead(t *testing.T) {
	// Appending bars must never change decisions for earlier bars.
	long := makeBars(100, 102, 104, 106, 108, 110)
	for i := range long {
		if i%2 == 0 {
			long[i].Level = "STRONG_BUY"
		} else {
			long[i].Level = "STRONG_SELL"
		}
	}
	short := long[:3]

	for _, entry := range Catalogue() {
		s, err := ParseStrategy(entry.Name)
		if err != nil {
			t.Fatalf("ParseStrategy(%q): %v", entry.Name, err)
		}
		longDecisions := s.Signals(long)
		shortDecisions := s.Signals(short)
		for i := range shortDecisions {
			if longDecisions[i].Signal != shortDecisions[i].Signal {
				t.Errorf("%s: bar %d decision changed when later bars were added", entry.Name, i)
			}
		}
	}
}
