package ta

import (
	"math"
)

// RSI returns the relative strength index with Wilder smoothing.
func RSI(close []float64, period int) []float64 {
	out := nanSlice(len(close))
	if len(close) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := close[i] - close[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(close); i++ {
		change := close[i] - close[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Stoch returns the smoothed stochastic oscillator %K and %D.
// Raw %K uses kPeriod highs/lows, %K is smoothed over smoothK bars and
// %D is an SMA of the smoothed %K over dPeriod bars.
func Stoch(high, low, close []float64, kPeriod, dPeriod, smoothK int) (k, d []float64) {
	n := len(close)
	raw := nanSlice(n)

	hh := RollingMax(high, kPeriod)
	ll := RollingMin(low, kPeriod)
	for i := kPeriod - 1; i < n; i++ {
		denom := hh[i] - ll[i]
		if denom == 0 {
			raw[i] = 50
			continue
		}
		raw[i] = (close[i] - ll[i]) / denom * 100
	}

	k = smaSkipNaN(raw, smoothK)
	d = smaSkipNaN(k, dPeriod)
	return k, d
}

// smaSkipNaN averages trailing windows that contain no NaN values,
// leaving NaN where the window is still incomplete.
func smaSkipNaN(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// MACD returns the MACD line and its signal line.
func MACD(close []float64, fast, slow, signal int) (macd, signalLine []float64) {
	n := len(close)
	macd = nanSlice(n)
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)
	for i := 0; i < n; i++ {
		if Valid(fastEMA[i]) && Valid(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// Signal line is an EMA over the valid MACD region.
	signalLine = nanSlice(n)
	start := slow - 1
	if start < n {
		sub := EMA(macd[start:], signal)
		copy(signalLine[start:], sub)
	}
	return macd, signalLine
}

// TrueRange returns the per-bar true range. The first bar has no prior
// close, so its range is high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		if i == 0 {
			out[i] = high[i] - low[i]
			continue
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR returns the average true range with Wilder smoothing.
func ATR(high, low, close []float64, period int) []float64 {
	return RMA(TrueRange(high, low, close), period)
}

// ADX returns the average directional index with Wilder smoothing.
func ADX(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	if n <= 2*period {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := ATR(high, low, close, period)
	plusSm := RMA(plusDM[1:], period)
	minusSm := RMA(minusDM[1:], period)

	dx := nanSlice(n)
	for i := period; i < n; i++ {
		if !Valid(atr[i]) || !Valid(plusSm[i-1]) || !Valid(minusSm[i-1]) || atr[i] == 0 {
			continue
		}
		plusDI := plusSm[i-1] / atr[i] * 100
		minusDI := minusSm[i-1] / atr[i] * 100
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = math.Abs(plusDI-minusDI) / sum * 100
	}

	sub := RMA(dx[period:], period)
	copy(out[period:], sub)
	return out
}

// CCI returns the commodity channel index over typical prices.
func CCI(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}
	sma := SMA(tp, period)
	for i := period - 1; i < n; i++ {
		var dev float64
		for j := i - period + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - sma[i])
		}
		dev /= float64(period)
		if dev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * dev)
	}
	return out
}

// WillR returns Williams %R.
func WillR(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	hh := RollingMax(high, period)
	ll := RollingMin(low, period)
	for i := period - 1; i < n; i++ {
		denom := hh[i] - ll[i]
		if denom == 0 {
			out[i] = -50
			continue
		}
		out[i] = (hh[i] - close[i]) / denom * -100
	}
	return out
}

// HighLow returns the spread between the trailing highest high and
// lowest low over the given window.
func HighLow(high, low []float64, period int) []float64 {
	n := len(high)
	out := nanSlice(n)
	hh := RollingMax(high, period)
	ll := RollingMin(low, period)
	for i := period - 1; i < n; i++ {
		out[i] = hh[i] - ll[i]
	}
	return out
}

// UltOsc returns the Ultimate Oscillator over 7/14/28 bar windows with
// the standard 4/2/1 weighting.
func UltOsc(high, low, close []float64) []float64 {
	n := len(close)
	out := nanSlice(n)
	if n < 29 {
		return out
	}

	bp := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		trueLow := math.Min(low[i], close[i-1])
		trueHigh := math.Max(high[i], close[i-1])
		bp[i] = close[i] - trueLow
		tr[i] = trueHigh - trueLow
	}

	for i := 28; i < n; i++ {
		avg7 := windowRatio(bp, tr, i, 7)
		avg14 := windowRatio(bp, tr, i, 14)
		avg28 := windowRatio(bp, tr, i, 28)
		out[i] = 100 * (4*avg7 + 2*avg14 + avg28) / 7
	}
	return out
}

func windowRatio(bp, tr []float64, end, period int) float64 {
	var sumBP, sumTR float64
	for j := end - period + 1; j <= end; j++ {
		sumBP += bp[j]
		sumTR += tr[j]
	}
	if sumTR == 0 {
		return 0.5
	}
	return sumBP / sumTR
}

// ROC returns the rate of change as a percentage over the given lag.
func ROC(close []float64, period int) []float64 {
	out := nanSlice(len(close))
	for i := period; i < len(close); i++ {
		if close[i-period] == 0 {
			continue
		}
		out[i] = (close[i] - close[i-period]) / close[i-period] * 100
	}
	return out
}

// BullBear returns Elder's bull power plus bear power against an EMA13.
func BullBear(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	ema := EMA(close, period)
	for i := 0; i < n; i++ {
		if Valid(ema[i]) {
			out[i] = (high[i] - ema[i]) + (low[i] - ema[i])
		}
	}
	return out
}
