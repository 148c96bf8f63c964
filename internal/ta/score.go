package ta

// Vote is one indicator's contribution to the technical summary.
type Vote string

const (
	VoteBuy     Vote = "BUY"
	VoteSell    Vote = "SELL"
	VoteNeutral Vote = "NEUTRAL"
)

// Summary levels derived from aggregated votes.
const (
	LevelStrongBuy  = "STRONG_BUY"
	LevelBuy        = "BUY"
	LevelNeutral    = "NEUTRAL"
	LevelSell       = "SELL"
	LevelStrongSell = "STRONG_SELL"
)

// ScoreRSI votes on a 14-period RSI value.
func ScoreRSI(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	switch {
	case *v > 70:
		return VoteSell
	case *v < 30:
		return VoteBuy
	default:
		return VoteNeutral
	}
}

// ScoreStochK votes on the stochastic %K value.
func ScoreStochK(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	switch {
	case *v > 80:
		return VoteSell
	case *v < 20:
		return VoteBuy
	default:
		return VoteNeutral
	}
}

// ScoreMACD votes on the MACD line against its signal line.
func ScoreMACD(macd, signal *float64) Vote {
	if macd == nil || signal == nil {
		return VoteNeutral
	}
	if *macd-*signal > 0 {
		return VoteBuy
	}
	return VoteSell
}

// ScoreCCI votes on a 14-period CCI value.
func ScoreCCI(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	switch {
	case *v > 100:
		return VoteSell
	case *v < -100:
		return VoteBuy
	default:
		return VoteNeutral
	}
}

// ScoreWillR votes on a Williams %R value.
func ScoreWillR(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	switch {
	case *v > -20:
		return VoteSell
	case *v < -80:
		return VoteBuy
	default:
		return VoteNeutral
	}
}

// ScoreHighLow votes on the 14-period high/low spread.
func ScoreHighLow(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	switch {
	case *v > 0:
		return VoteBuy
	case *v < 0:
		return VoteSell
	default:
		return VoteNeutral
	}
}

// ScoreUltOsc votes on the Ultimate Oscillator value.
func ScoreUltOsc(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	switch {
	case *v > 70:
		return VoteSell
	case *v < 30:
		return VoteBuy
	default:
		return VoteNeutral
	}
}

// ScoreROC votes on the rate-of-change value.
func ScoreROC(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	if *v > 0 {
		return VoteBuy
	}
	return VoteSell
}

// ScoreBullBear votes on the combined bull/bear power value.
func ScoreBullBear(v *float64) Vote {
	if v == nil {
		return VoteNeutral
	}
	if *v > 0 {
		return VoteBuy
	}
	return VoteSell
}

// ScoreMovingAverage votes a moving average against the current close.
func ScoreMovingAverage(ma *float64, close float64) Vote {
	if ma == nil {
		return VoteNeutral
	}
	if close > *ma {
		return VoteBuy
	}
	return VoteSell
}

// CountVotes tallies a list of votes into buy/sell/neutral counts.
func CountVotes(votes []Vote) (buy, sell, neutral int) {
	for _, v := range votes {
		switch v {
		case VoteBuy:
			buy++
		case VoteSell:
			sell++
		default:
			neutral++
		}
	}
	return buy, sell, neutral
}

// DetermineLevel aggregates vote counts into a summary level. A strong
// level requires at least two thirds of all votes on one side.
func DetermineLevel(buy, sell, neutral int) string {
	total := buy + sell + neutral
	if total == 0 {
		return LevelNeutral
	}

	strong := 2 * float64(total) / 3
	switch {
	case float64(buy) >= strong:
		return LevelStrongBuy
	case float64(sell) >= strong:
		return LevelStrongSell
	case buy > sell:
		return LevelBuy
	case sell > buy:
		return LevelSell
	default:
		return LevelNeutral
	}
}
