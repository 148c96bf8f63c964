package backtest

import (
	"fmt"
	"math"
)

// Strategy is a closed set of signal generation policies. Adding a
// strategy means adding a constant here and a case in Signals.
type Strategy int

const (
	StrategyTechnicalSummary Strategy = iota
	StrategyRSI
	StrategyMACD
	StrategyTrendFiltered
	StrategyMarketAdaptive
	StrategyLowFrequency
	StrategyADXFiltered
	StrategyMomentumReversal
	StrategyPositionSizing
	StrategyBuyHoldFirst
)

var strategyNames = map[Strategy]string{
	StrategyTechnicalSummary: "technical_summary",
	StrategyRSI:              "rsi",
	StrategyMACD:             "macd",
	StrategyTrendFiltered:    "trend_filtered",
	StrategyMarketAdaptive:   "market_adaptive",
	StrategyLowFrequency:     "low_frequency",
	StrategyADXFiltered:      "adx_filtered",
	StrategyMomentumReversal: "momentum_reversal",
	StrategyPositionSizing:   "position_sizing",
	StrategyBuyHoldFirst:     "buy_hold_first",
}

// ParseStrategy resolves a strategy by its API name.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy: %s", name)
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// CatalogueEntry describes one strategy for the strategies endpoint.
type CatalogueEntry struct {
	Name        string
	Description string
	Risk        string
}

// Catalogue lists every selectable strategy.
func Catalogue() []CatalogueEntry {
	return []CatalogueEntry{
		{"technical_summary", "Technical summary levels (STRONG_BUY/BUY buys, STRONG_SELL/SELL sells)", "high - frequent, lagging signals"},
		{"low_frequency", "Low frequency trading (15-bar cooldown, trades only at trend flips)", "low - minimal trade count"},
		{"adx_filtered", "Trend strength filter (trades only when the ADX estimate exceeds 25)", "medium - no trading in ranges"},
		{"momentum_reversal", "Momentum reversal (trades only at oversold/overbought extremes)", "medium - tries to catch bottoms and tops"},
		{"position_sizing", "Volatility-scaled position sizing with level-strength weighting", "medium - exposure follows risk"},
		{"buy_hold_first", "First buy held long term, sells only on strong weakness", "low - minimal trading, long horizon"},
		{"trend_filtered", "Summary signals with selling suppressed in uptrends", "medium - trend protection"},
		{"market_adaptive", "Regime-dependent rules for bull, bear and ranging markets", "medium - regime aware"},
		{"rsi", "RSI strategy (below 30 buys, above 70 sells)", "medium"},
		{"macd", "MACD golden/dead cross strategy", "medium"},
	}
}

// Signals maps the merged series to one decision per bar. A bar whose
// required inputs are missing always yields HOLD, never an error.
func (s Strategy) Signals(bars []Bar) []Decision {
	switch s {
	case StrategyTechnicalSummary:
		return summarySignals(bars)
	case StrategyRSI:
		return rsiSignals(bars)
	case StrategyMACD:
		return macdSignals(bars)
	case StrategyTrendFiltered:
		return trendFilteredSignals(bars)
	case StrategyMarketAdaptive:
		return marketAdaptiveSignals(bars)
	case StrategyLowFrequency:
		return lowFrequencySignals(bars)
	case StrategyADXFiltered:
		return adxFilteredSignals(bars)
	case StrategyMomentumReversal:
		return momentumReversalSignals(bars)
	case StrategyPositionSizing:
		return positionSizingSignals(bars)
	case StrategyBuyHoldFirst:
		return buyHoldFirstSignals(bars)
	default:
		return holdDecisions(len(bars))
	}
}

func holdDecisions(n int) []Decision {
	out := make([]Decision, n)
	for i := range out {
		out[i] = Decision{Signal: SignalHold, PositionSize: 1}
	}
	return out
}

// levelSignal maps a summary level to its base signal, or HOLD when the
// level is absent or neutral.
func levelSignal(level string) Signal {
	switch level {
	case "STRONG_BUY", "BUY":
		return SignalBuy
	case "STRONG_SELL", "SELL":
		return SignalSell
	default:
		return SignalHold
	}
}

func isStrongLevel(level string) bool {
	return level == "STRONG_BUY" || level == "STRONG_SELL"
}

func summarySignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	for i, b := range bars {
		out[i].Signal = levelSignal(b.Level)
	}
	return out
}

func rsiSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	for i, b := range bars {
		if b.RSI14 == nil {
			continue
		}
		switch {
		case *b.RSI14 < 30:
			out[i].Signal = SignalBuy
		case *b.RSI14 > 70:
			out[i].Signal = SignalSell
		}
	}
	return out
}

func macdSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	prevDiff := math.NaN()
	for i, b := range bars {
		diff := math.NaN()
		if b.MACD != nil && b.MACDSignal != nil {
			diff = *b.MACD - *b.MACDSignal
		}
		if valid(diff) && valid(prevDiff) {
			// Golden cross: histogram turns positive. Dead cross:
			// histogram turns negative.
			if prevDiff <= 0 && diff > 0 {
				out[i].Signal = SignalBuy
			} else if prevDiff >= 0 && diff < 0 {
				out[i].Signal = SignalSell
			}
		}
		prevDiff = diff
	}
	return out
}

func trendFilteredSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	cl := closes(bars)
	ma50 := rollingMean(cl, 50)
	ma200 := rollingMean(cl, 200)
	trendStrength := pctChange(cl, 20)

	for i, b := range bars {
		base := levelSignal(b.Level)
		if base == SignalHold {
			continue
		}

		isUptrend := valid(ma50[i]) && valid(ma200[i]) &&
			b.Close > ma50[i] && ma50[i] > ma200[i]
		strongUptrend := valid(trendStrength[i]) && trendStrength[i] > 0.10

		if base == SignalBuy {
			out[i].Signal = SignalBuy
		} else if !isUptrend && !strongUptrend {
			// Selling is suppressed while the market trends up.
			out[i].Signal = SignalSell
		}
	}
	return out
}

func marketAdaptiveSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	cl := closes(bars)
	ma20 := rollingMean(cl, 20)
	ma50 := rollingMean(cl, 50)
	ma200 := rollingMean(cl, 200)

	for i, b := range bars {
		base := levelSignal(b.Level)
		if base == SignalHold {
			continue
		}

		trendStrength := math.NaN()
		if valid(ma50[i]) && ma50[i] != 0 {
			trendStrength = (b.Close - ma50[i]) / ma50[i]
		}

		isStrongBull := valid(ma20[i]) && valid(ma50[i]) && valid(ma200[i]) &&
			b.Close > ma20[i] && ma20[i] > ma50[i] && ma50[i] > ma200[i] &&
			valid(trendStrength) && trendStrength > 0.15

		isBearMarket := valid(ma50[i]) && valid(ma200[i]) &&
			b.Close < ma50[i] && ma50[i] < ma200[i]

		switch {
		case isStrongBull:
			// Strong bull market: buy only, ignore sell signals.
			if base == SignalBuy {
				out[i].Signal = SignalBuy
			}
		case isBearMarket:
			out[i].Signal = base
		default:
			// Ranging market: act on strong levels only.
			if isStrongLevel(b.Level) {
				out[i].Signal = base
			}
		}
	}
	return out
}

func lowFrequencySignals(bars []Bar) []Decision {
	const cooldown = 15

	out := holdDecisions(len(bars))
	cl := closes(bars)
	ma20 := rollingMean(cl, 20)
	ma50 := rollingMean(cl, 50)

	trendUp := make([]bool, len(bars))
	for i := range bars {
		trendUp[i] = valid(ma20[i]) && valid(ma50[i]) && ma20[i] > ma50[i]
	}

	lastTradeIdx := -cooldown
	for i, b := range bars {
		if i-lastTradeIdx < cooldown {
			continue
		}
		if !isStrongLevel(b.Level) {
			continue
		}
		trendChange := i == 0 || trendUp[i] != trendUp[i-1]
		if !trendChange {
			continue
		}
		if b.Level == "STRONG_BUY" && trendUp[i] {
			out[i].Signal = SignalBuy
			lastTradeIdx = i
		} else if b.Level == "STRONG_SELL" && !trendUp[i] {
			out[i].Signal = SignalSell
			lastTradeIdx = i
		}
	}
	return out
}

func adxFilteredSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	cl := closes(bars)
	atr14 := trueRangeMean(bars, 14)

	absChange := nanSlice(len(bars))
	for i := 1; i < len(bars); i++ {
		if cl[i-1] != 0 {
			absChange[i] = math.Abs(cl[i]/cl[i-1] - 1)
		}
	}
	meanChange := rollingMeanSkipLeading(absChange, 14)

	for i, b := range bars {
		// Rough trend strength estimate: ATR-normalized average move,
		// rescaled by price. Kept as-is for behavior compatibility with
		// historical results; this is not a textbook ADX.
		adx := 0.0
		if valid(meanChange[i]) && valid(atr14[i]) && atr14[i] != 0 {
			adx = meanChange[i] / atr14[i] * b.Close * 100
		}
		if adx > 25 {
			out[i].Signal = levelSignal(b.Level)
		}
	}
	return out
}

func momentumReversalSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	for i, b := range bars {
		if b.RSI14 == nil || b.StochK == nil || b.CCI14 == nil {
			continue
		}
		switch {
		case *b.RSI14 < 25 && *b.StochK < 20 && *b.CCI14 < -150:
			out[i].Signal = SignalBuy
		case *b.RSI14 > 75 && *b.StochK > 80 && *b.CCI14 > 150:
			out[i].Signal = SignalSell
		}
	}
	return out
}

func positionSizingSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	cl := closes(bars)
	vol := rollingStd(pctChange(cl, 1), 20)

	for i, b := range bars {
		if b.Level == "" || b.Level == "NEUTRAL" {
			continue
		}

		// Size inversely to realized volatility, full weight on strong
		// levels and 60% on regular ones. Without volatility history
		// the base size stays at 1.
		base := 1.0
		if valid(vol[i]) {
			base = math.Min(1.0, 0.02/math.Max(vol[i], 0.01))
		}

		switch b.Level {
		case "STRONG_BUY":
			out[i] = Decision{Signal: SignalBuy, PositionSize: base}
		case "BUY":
			out[i] = Decision{Signal: SignalBuy, PositionSize: base * 0.6}
		case "STRONG_SELL":
			out[i] = Decision{Signal: SignalSell, PositionSize: base}
		case "SELL":
			out[i] = Decision{Signal: SignalSell, PositionSize: base * 0.6}
		}
	}
	return out
}

func buyHoldFirstSignals(bars []Bar) []Decision {
	out := holdDecisions(len(bars))
	cl := closes(bars)
	ma200 := rollingMean(cl, 200)

	held := false
	for i, b := range bars {
		if !held {
			if levelSignal(b.Level) == SignalBuy {
				out[i].Signal = SignalBuy
				held = true
			}
			continue
		}
		// Holding: sell only on a strong sell while price sits more
		// than 10% under the 200-bar average.
		belowMA200 := valid(ma200[i]) && b.Close < ma200[i]*0.9
		if b.Level == "STRONG_SELL" && belowMA200 {
			out[i].Signal = SignalSell
			held = false
		}
	}
	return out
}
