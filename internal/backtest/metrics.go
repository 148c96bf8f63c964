package backtest

import (
	"math"
)

// tradingDaysPerYear is the annualization base for the Sharpe ratio.
const tradingDaysPerYear = 252

func evaluate(
	bars []Bar,
	initialCapital, finalCapital, totalCost float64,
	trades []Trade,
	equity []EquityPoint,
	cfg Config,
) *Result {
	totalReturnPct := (finalCapital - initialCapital) / initialCapital * 100
	buyHoldPct := buyHoldReturn(bars, initialCapital, cfg.TransactionCostRate)

	winning, losing := winLossTrades(trades)
	winRate := float64(winning) / math.Max(1, float64(winning+losing)) * 100

	var buys, sells int
	for _, t := range trades {
		if t.Action == SignalBuy {
			buys++
		} else {
			sells++
		}
	}
	completed := buys
	if sells < buys {
		completed = sells
	}

	return &Result{
		StartDate:            bars[0].Ts,
		EndDate:              bars[len(bars)-1].Ts,
		InitialCapital:       initialCapital,
		FinalCapital:         finalCapital,
		TotalReturnPct:       totalReturnPct,
		BuyHoldReturnPct:     buyHoldPct,
		Alpha:                totalReturnPct - buyHoldPct,
		TotalTrades:          completed,
		WinningTrades:        winning,
		LosingTrades:         losing,
		WinRate:              winRate,
		MaxDrawdown:          maxDrawdown(equity),
		SharpeRatio:          sharpeRatio(equity, cfg.RiskFreeRate),
		TotalTransactionCost: totalCost,
		Trades:               trades,
		EquityCurve:          equity,
	}
}

// winLossTrades matches BUY and SELL orders first-in-first-out and
// classifies each round trip. A pair wins when the net sale proceeds
// exceed the gross purchase cost including both commissions.
func winLossTrades(trades []Trade) (winning, losing int) {
	var buyQueue []Trade
	for _, t := range trades {
		switch t.Action {
		case SignalBuy:
			buyQueue = append(buyQueue, t)
		case SignalSell:
			if len(buyQueue) == 0 {
				continue
			}
			buy := buyQueue[0]
			buyQueue = buyQueue[1:]

			buyCost := buy.Price*float64(buy.Quantity) + buy.TransactionCost
			sellRevenue := t.Price*float64(t.Quantity) - t.TransactionCost
			if sellRevenue > buyCost {
				winning++
			} else {
				losing++
			}
		}
	}
	return winning, losing
}

// maxDrawdown is the deepest peak-to-trough decline of the equity
// curve, as a negative percentage. An empty curve yields 0.
func maxDrawdown(equity []EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0].Value
	worst := 0.0
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (p.Value - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst * 100
}

// sharpeRatio annualizes the mean excess per-bar return over its
// sample standard deviation. Fewer than two equity points or zero
// variance yield 0.
func sharpeRatio(equity []EquityPoint, riskFreeRate float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1].Value == 0 {
			continue
		}
		returns = append(returns, equity[i].Value/equity[i-1].Value-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	dailyRiskFree := riskFreeRate / tradingDaysPerYear
	return (mean - dailyRiskFree) / std * math.Sqrt(tradingDaysPerYear)
}

// buyHoldReturn simulates buying the maximum affordable whole-share
// position at the first close and selling at the last, with the same
// commission on both legs. Returns 0 when no shares are affordable.
func buyHoldReturn(bars []Bar, initialCapital, costRate float64) float64 {
	if len(bars) == 0 {
		return 0
	}
	startPrice := bars[0].Close
	endPrice := bars[len(bars)-1].Close

	available := initialCapital - initialCapital*costRate
	shares := math.Floor(available / startPrice)
	if shares <= 0 {
		return 0
	}

	finalValue := shares * endPrice
	finalCapital := finalValue - finalValue*costRate
	return (finalCapital - initialCapital) / initialCapital * 100
}
