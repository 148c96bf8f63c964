package ta

import (
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestScoreOscillators(t *testing.T) {
	tests := []struct {
		name string
		got  Vote
		want Vote
	}{
		{"rsi oversold", ScoreRSI(fp(25)), VoteBuy},
		{"rsi overbought", ScoreRSI(fp(75)), VoteSell},
		{"rsi middle", ScoreRSI(fp(50)), VoteNeutral},
		{"rsi missing", ScoreRSI(nil), VoteNeutral},
		{"stoch oversold", ScoreStochK(fp(15)), VoteBuy},
		{"stoch overbought", ScoreStochK(fp(85)), VoteSell},
		{"macd above signal", ScoreMACD(fp(2), fp(1)), VoteBuy},
		{"macd below signal", ScoreMACD(fp(1), fp(2)), VoteSell},
		{"macd missing", ScoreMACD(nil, fp(1)), VoteNeutral},
		{"cci high", ScoreCCI(fp(150)), VoteSell},
		{"cci low", ScoreCCI(fp(-150)), VoteBuy},
		{"cci middle", ScoreCCI(fp(0)), VoteNeutral},
		{"willr high", ScoreWillR(fp(-10)), VoteSell},
		{"willr low", ScoreWillR(fp(-90)), VoteBuy},
		{"highlow positive", ScoreHighLow(fp(3)), VoteBuy},
		{"ultosc overbought", ScoreUltOsc(fp(75)), VoteSell},
		{"roc positive", ScoreROC(fp(1)), VoteBuy},
		{"roc negative", ScoreROC(fp(-1)), VoteSell},
		{"bullbear positive", ScoreBullBear(fp(0.5)), VoteBuy},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, tt.got)
		}
	}
}

func TestScoreMovingAverage(t *testing.T) {
	if got := ScoreMovingAverage(fp(95), 100); got != VoteBuy {
		t.Errorf("close above MA: expected BUY, got %s", got)
	}
	if got := ScoreMovingAverage(fp(105), 100); got != VoteSell {
		t.Errorf("close below MA: expected SELL, got %s", got)
	}
	if got := ScoreMovingAverage(nil, 100); got != VoteNeutral {
		t.Errorf("missing MA: expected NEUTRAL, got %s", got)
	}
}

func TestCountVotes(t *testing.T) {
	votes := []Vote{VoteBuy, VoteBuy, VoteSell, VoteNeutral, VoteNeutral}
	buy, sell, neutral := CountVotes(votes)
	if buy != 2 || sell != 1 || neutral != 2 {
		t.Errorf("expected 2/1/2, got %d/%d/%d", buy, sell, neutral)
	}
}

func TestDetermineLevel(t *testing.T) {
	tests := []struct {
		name               string
		buy, sell, neutral int
		want               string
	}{
		{"two thirds buy", 10, 2, 3, LevelStrongBuy},
		{"two thirds sell", 2, 12, 1, LevelStrongSell},
		{"simple majority buy", 6, 5, 4, LevelBuy},
		{"simple majority sell", 5, 6, 4, LevelSell},
		{"tie", 5, 5, 5, LevelNeutral},
		{"no votes", 0, 0, 0, LevelNeutral},
		{"exactly two thirds", 10, 0, 5, LevelStrongBuy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineLevel(tt.buy, tt.sell, tt.neutral)
			if got != tt.want {
				t.Errorf("DetermineLevel(%d, %d, %d) = %s, want %s",
					tt.buy, tt.sell, tt.neutral, got, tt.want)
			}
		})
	}
}
