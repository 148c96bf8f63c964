package ta

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func constSlice(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)

	if Valid(got[0]) || Valid(got[1]) {
		t.Error("expected NaN during warmup")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(got[i+2], w) {
			t.Errorf("index %d: expected %v, got %v", i+2, w, got[i+2])
		}
	}
}

func TestSMAInsufficientData(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for i, v := range got {
		if Valid(v) {
			t.Errorf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)

	// Seeded with SMA(3)=2, alpha=0.5.
	if !almostEqual(got[2], 2) {
		t.Errorf("expected seed 2, got %v", got[2])
	}
	if !almostEqual(got[3], 3) {
		t.Errorf("expected 3, got %v", got[3])
	}
	if !almostEqual(got[4], 4) {
		t.Errorf("expected 4, got %v", got[4])
	}
}

func TestRSIExtremes(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	got := RSI(rising, 14)
	if !almostEqual(got[15], 100) {
		t.Errorf("all gains: expected RSI 100, got %v", got[15])
	}

	falling := make([]float64, 16)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	got = RSI(falling, 14)
	if !almostEqual(got[15], 0) {
		t.Errorf("all losses: expected RSI 0, got %v", got[15])
	}
}

func TestROC(t *testing.T) {
	got := ROC([]float64{100, 105, 110, 121}, 2)

	if Valid(got[0]) || Valid(got[1]) {
		t.Error("expected NaN during warmup")
	}
	if !almostEqual(got[2], 10) {
		t.Errorf("expected 10, got %v", got[2])
	}
	if math.Abs(got[3]-15.238095238095237) > 1e-9 {
		t.Errorf("expected ~15.238, got %v", got[3])
	}
}

func TestHighLow(t *testing.T) {
	high := []float64{3, 5, 4}
	low := []float64{1, 2, 0}
	got := HighLow(high, low, 2)

	if Valid(got[0]) {
		t.Error("expected NaN during warmup")
	}
	if !almostEqual(got[1], 4) {
		t.Errorf("expected 4, got %v", got[1])
	}
	if !almostEqual(got[2], 5) {
		t.Errorf("expected 5, got %v", got[2])
	}
}

func TestStochFlatSeries(t *testing.T) {
	n := 20
	flat := constSlice(10, n)
	k, d := Stoch(flat, flat, flat, 9, 6, 3)

	// A flat window has no range, which reads as a 50 midpoint.
	if !almostEqual(k[n-1], 50) {
		t.Errorf("expected %%K 50, got %v", k[n-1])
	}
	if !almostEqual(d[n-1], 50) {
		t.Errorf("expected %%D 50, got %v", d[n-1])
	}
}

func TestMACDFlatSeries(t *testing.T) {
	flat := constSlice(10, 40)
	macd, signal := MACD(flat, 12, 26, 9)

	if !almostEqual(macd[39], 0) {
		t.Errorf("flat series: expected MACD 0, got %v", macd[39])
	}
	if !almostEqual(signal[39], 0) {
		t.Errorf("flat series: expected signal 0, got %v", signal[39])
	}
}

func TestCCIFlatSeries(t *testing.T) {
	flat := constSlice(10, 20)
	got := CCI(flat, flat, flat, 14)
	if !almostEqual(got[19], 0) {
		t.Errorf("flat series: expected CCI 0, got %v", got[19])
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 20
	high := constSlice(12, n)
	low := constSlice(10, n)
	close := constSlice(11, n)

	got := ATR(high, low, close, 14)
	if !almostEqual(got[n-1], 2) {
		t.Errorf("expected ATR 2, got %v", got[n-1])
	}
}

func TestWillRBounds(t *testing.T) {
	n := 20
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := range high {
		high[i] = 100 + float64(i)
		low[i] = 90 + float64(i)
		close[i] = high[i]
	}

	got := WillR(high, low, close, 14)
	// Close at the period high reads 0; the scale is 0 to -100.
	if !almostEqual(got[n-1], 0) {
		t.Errorf("close at high: expected 0, got %v", got[n-1])
	}
}

func TestLastPtr(t *testing.T) {
	if LastPtr(nil) != nil {
		t.Error("empty series: expected nil")
	}
	if LastPtr([]float64{1, math.NaN()}) != nil {
		t.Error("NaN tail: expected nil")
	}
	if p := LastPtr([]float64{1, 2}); p == nil || *p != 2 {
		t.Errorf("expected 2, got %v", p)
	}
}
