package service

import (
	"math"
	"testing"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"
)

func makeCandles(closes []float64) []model.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			SymbolID:  1,
			Timeframe: model.Timeframe1d,
			Ts:        base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func TestBuildSeriesAlignment(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	candles := makeCandles(closes)

	indicators, movingAvgs := buildSeries(1, model.Timeframe1d, candles)

	if len(indicators) != len(candles) || len(movingAvgs) != len(candles) {
		t.Fatalf("series not aligned with candles: %d indicators, %d moving avgs, %d candles",
			len(indicators), len(movingAvgs), len(candles))
	}

	for i := range indicators {
		if !indicators[i].Ts.Equal(candles[i].Ts) {
			t.Fatalf("indicator row %d timestamp mismatch", i)
		}
		if !movingAvgs[i].Ts.Equal(candles[i].Ts) {
			t.Fatalf("moving avg row %d timestamp mismatch", i)
		}
	}
}

func TestBuildSeriesWarmup(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	candles := makeCandles(closes)

	indicators, movingAvgs := buildSeries(1, model.Timeframe1d, candles)

	// RSI needs 14 bars of history
	if indicators[5].RSI14 != nil {
		t.Errorf("expected nil RSI during warmup, got %v", *indicators[5].RSI14)
	}
	if indicators[59].RSI14 == nil {
		t.Error("expected RSI after warmup")
	}

	// MA5 of the last five closes 155..159
	if movingAvgs[59].MA5 == nil {
		t.Fatal("expected MA5 after warmup")
	}
	if math.Abs(*movingAvgs[59].MA5-157) > 1e-9 {
		t.Errorf("MA5 = %v, want 157", *movingAvgs[59].MA5)
	}

	// 60 bars cannot produce MA100 or MA200
	if movingAvgs[59].MA100 != nil || movingAvgs[59].MA200 != nil {
		t.Error("expected nil MA100/MA200 with 60 bars of history")
	}
}

func TestScoreVotesAllBullish(t *testing.T) {
	v := func(x float64) *float64 { return &x }

	ind := &model.IndicatorRow{
		RSI14:      v(25),  // buy
		StochK:     v(15),  // buy
		MACD:       v(1),   // buy vs signal
		MACDSignal: v(0.5),
		CCI14:      v(-150), // buy
		ROC:        v(2),    // buy
		BullBear:   v(1),    // buy
		UltOsc:     v(25),   // buy
	}
	ma := &model.MovingAvgRow{
		MA5:   v(90),
		EMA5:  v(90),
		MA10:  v(90),
		EMA10: v(90),
		MA20:  v(90),
		EMA20: v(90),
		MA50:  v(90),
		MA100: v(90),
		MA200: v(90),
	}

	buy, sell, neutral := scoreVotes(ind, ma, 100)
	if buy != 16 || sell != 0 || neutral != 0 {
		t.Errorf("scoreVotes = (%d, %d, %d), want (16, 0, 0)", buy, sell, neutral)
	}
}

func TestScoreVotesMissingDataIsNeutral(t *testing.T) {
	buy, sell, neutral := scoreVotes(&model.IndicatorRow{}, &model.MovingAvgRow{}, 100)
	if buy != 0 || sell != 0 || neutral != 16 {
		t.Errorf("scoreVotes = (%d, %d, %d), want (0, 0, 16)", buy, sell, neutral)
	}
}
