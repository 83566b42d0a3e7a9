package scoring

import (
	"time"

	"CoinPulse/internal/domain/models"
)

// Session liquidity multipliers by UTC hour. Crypto trades around the
// clock, but depth does not: the EU/US overlap carries the most, the
// overnight lull the least.
const (
	sessionOverlapFactor   = 1.05 // 13:00-16:59 UTC, EU and US both active
	sessionSingleFactor    = 1.02 // one major region active
	sessionOvernightFactor = 0.97 // Asia-only / overnight lull
)

// sessionFactor returns the time-of-day liquidity multiplier for t.
func sessionFactor(t time.Time) float64 {
	switch h := t.UTC().Hour(); {
	case h >= 13 && h <= 16:
		return sessionOverlapFactor
	case h >= 7 && h <= 12, h >= 17 && h <= 21:
		return sessionSingleFactor
	default:
		return sessionOvernightFactor
	}
}

// Persistence thresholds: a component above bullishBar agrees with a move
// up, below bearishBar with a move down.
const (
	bullishBar = 60.0
	bearishBar = 40.0
)

// persistenceFactor rewards internally consistent breakdowns and dampens
// noisy ones. Only the directional components vote; volatility and the
// corrective components are excluded because they do not carry direction.
//
// Consistent agreement amplifies the composite away from neutral in the
// direction it already points: x1.1 pushes a bullish score up and, applied
// to a sub-neutral composite, keeps a uniformly bearish one from being
// diluted upward by the multiplier chain.
func persistenceFactor(b models.ComponentScores) float64 {
	votes := []float64{b.Price, b.Volume, b.Sentiment, b.Whale}

	bullish, bearish := 0, 0
	for _, v := range votes {
		switch {
		case v >= bullishBar:
			bullish++
		case v <= bearishBar:
			bearish++
		}
	}

	switch {
	case bullish >= 3 && bearish == 0:
		return 1.10
	case bearish >= 3 && bullish == 0:
		return 0.90
	case bullish >= 1 && bearish >= 1:
		return 0.95
	default:
		return 1.0
	}
}
