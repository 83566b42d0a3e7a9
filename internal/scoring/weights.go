package scoring

import "CoinPulse/internal/domain/models"

// Weights is the per-regime weight vector applied to the component
// breakdown. Vectors need not sum to 1; the session and persistence
// correction multipliers apply after aggregation.
type Weights struct {
	Price       float64
	Volume      float64
	Market      float64
	Sentiment   float64
	Whale       float64
	Volatility  float64
	Correlation float64
	Macro       float64
}

// defaultWeights returns one vector per regime. Volatile markets lean on
// momentum, volume and whale flow; stable markets lean on position and
// sentiment; thin markets are dominated by whether anyone is actually
// trading the asset.
func defaultWeights() map[models.Regime]Weights {
	return map[models.Regime]Weights{
		models.RegimeNormal: {
			Price: 0.25, Volume: 0.15, Market: 0.10, Sentiment: 0.15,
			Whale: 0.10, Volatility: 0.10, Correlation: 0.10, Macro: 0.05,
		},
		models.RegimeVolatile: {
			Price: 0.30, Volume: 0.20, Market: 0.05, Sentiment: 0.10,
			Whale: 0.15, Volatility: 0.15, Correlation: 0.03, Macro: 0.02,
		},
		models.RegimeStable: {
			Price: 0.15, Volume: 0.10, Market: 0.20, Sentiment: 0.20,
			Whale: 0.10, Volatility: 0.05, Correlation: 0.10, Macro: 0.10,
		},
		models.RegimeLowLiquidity: {
			Price: 0.15, Volume: 0.30, Market: 0.15, Sentiment: 0.05,
			Whale: 0.10, Volatility: 0.10, Correlation: 0.10, Macro: 0.05,
		},
	}
}

// apply aggregates the breakdown under the vector.
func (w Weights) apply(b models.ComponentScores) float64 {
	return b.Price*w.Price +
		b.Volume*w.Volume +
		b.Market*w.Market +
		b.Sentiment*w.Sentiment +
		b.Whale*w.Whale +
		b.Volatility*w.Volatility +
		b.Correlation*w.Correlation +
		b.Macro*w.Macro
}
