package backtest

import (
	"math"
)

// Rolling helpers local to strategy evaluation. Strategies recompute
// their own trailing statistics from closes so a run never depends on
// which moving averages happen to be persisted. NaN marks rows without
// enough history.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func valid(v float64) bool {
	return !math.IsNaN(v)
}

func closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// rollingMean is a trailing simple moving average.
func rollingMean(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingStd is a trailing sample standard deviation. Windows that
// contain NaN inputs stay NaN.
func rollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		var sum float64
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(period)
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(period-1))
	}
	return out
}

// pctChange returns the fractional change against the value lag bars
// earlier. The first lag rows have no reference and stay NaN.
func pctChange(values []float64, lag int) []float64 {
	out := nanSlice(len(values))
	for i := lag; i < len(values); i++ {
		if values[i-lag] == 0 {
			continue
		}
		out[i] = values[i]/values[i-lag] - 1
	}
	return out
}

// trueRangeMean is a trailing simple mean of the true range, matching
// the rough ATR used by the trend-strength filter (deliberately not
// Wilder-smoothed).
func trueRangeMean(bars []Bar, period int) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prev := bars[i-1].Close
		hl := b.High - b.Low
		hc := math.Abs(b.High - prev)
		lc := math.Abs(b.Low - prev)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return rollingMean(tr, period)
}

// rollingMeanSkipLeading averages trailing windows, treating windows
// that still contain leading-NaN inputs as not yet computable.
func rollingMeanSkipLeading(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		var sum float64
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
