// Package ta computes the technical indicators and votes behind the
// indicators, moving_avgs and summary tables. All series functions take
// ascending price slices and return slices of the same length, with NaN
// marking rows that lack enough history.
package ta

import (
	"math"
)

// SMA returns the simple moving average over the given trailing window.
func SMA(values []float64, period int) []float64 {
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

// EMA returns the exponential moving average, seeded with an SMA of the
// first period values, alpha = 2/(period+1).
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	alpha := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// RMA returns Wilder's smoothed moving average, alpha = 1/period.
func RMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	alpha := 1.0 / float64(period)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// RollingMax returns the trailing maximum over the given window.
func RollingMax(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		max := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] > max {
				max = values[j]
			}
		}
		out[i] = max
	}
	return out
}

// RollingMin returns the trailing minimum over the given window.
func RollingMin(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		min := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] < min {
				min = values[j]
			}
		}
		out[i] = min
	}
	return out
}

// Valid reports whether v carries a computed value.
func Valid(v float64) bool {
	return !math.IsNaN(v)
}

// LastPtr converts the final element of a series to a nullable value
// for persistence, nil when the series is empty or still warming up.
func LastPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Ptr converts element i of a series to a nullable value.
func Ptr(values []float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	v := values[i]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
