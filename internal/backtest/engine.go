package backtest

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoData is returned when the input series is empty.
var ErrNoData = errors.New("no candle data")

// Run replays the merged series through the given strategy and a
// single-position simulated portfolio. The portfolio state machine is
// FLAT -> LONG -> FLAT: at most one open position, whole shares only,
// a symmetric transaction cost on entry and exit notional, and a
// stop-loss that overrides the strategy's own signal. Validation
// failures reject the run before the first trade; signals the
// portfolio cannot act on (BUY while LONG, SELL while FLAT,
// insufficient cash) are skipped silently.
func Run(bars []Bar, strategy Strategy, initialCapital float64, cfg Config) (*Result, error) {
	if err := validateInput(bars, initialCapital, cfg); err != nil {
		return nil, err
	}

	decisions := strategy.Signals(bars)

	cash := initialCapital
	var position int64
	var entryPrice float64
	var totalCost float64
	trades := make([]Trade, 0)
	equity := make([]EquityPoint, 0, len(bars))

	for i, bar := range bars {
		price := bar.Close
		signal := decisions[i].Signal
		reason := string(signal)

		// Stop-loss takes priority over the strategy's signal. The
		// boundary is inclusive: a close exactly at the threshold
		// triggers.
		if position > 0 && price <= entryPrice*(1-cfg.StopLossRatio) {
			signal = SignalSell
			reason = ReasonStopLoss
		}

		switch {
		case signal == SignalBuy && position == 0:
			maxInvestment := cash * cfg.MaxPositionRatio
			quantity := int64(math.Floor(maxInvestment / price))
			if quantity > 0 {
				gross := float64(quantity) * price
				cost := gross * cfg.TransactionCostRate
				if cash >= gross+cost {
					cash -= gross + cost
					position = quantity
					entryPrice = price
					totalCost += cost
					trades = append(trades, Trade{
						Timestamp:       bar.Ts,
						Action:          SignalBuy,
						Price:           price,
						Quantity:        quantity,
						Reason:          reason,
						TransactionCost: cost,
					})
				}
			}

		case signal == SignalSell && position > 0:
			gross := float64(position) * price
			cost := gross * cfg.TransactionCostRate
			cash += gross - cost
			totalCost += cost
			trades = append(trades, Trade{
				Timestamp:       bar.Ts,
				Action:          SignalSell,
				Price:           price,
				Quantity:        position,
				Reason:          reason,
				TransactionCost: cost,
			})
			position = 0
			entryPrice = 0
		}

		equity = append(equity, EquityPoint{
			Ts:    bar.Ts,
			Value: cash + float64(position)*price,
		})
	}

	// Force liquidation at the final close so every run ends flat.
	if position > 0 {
		last := bars[len(bars)-1]
		gross := float64(position) * last.Close
		cost := gross * cfg.TransactionCostRate
		cash += gross - cost
		totalCost += cost
		trades = append(trades, Trade{
			Timestamp:       last.Ts,
			Action:          SignalSell,
			Price:           last.Close,
			Quantity:        position,
			Reason:          ReasonFinalSell,
			TransactionCost: cost,
		})
		position = 0
	}

	return evaluate(bars, initialCapital, cash, totalCost, trades, equity, cfg), nil
}

func validateInput(bars []Bar, initialCapital float64, cfg Config) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	if initialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive: %v", initialCapital)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("invalid price data at %s", b.Ts.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
