package scoring

import (
	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/util"
)

// neutralScore substitutes any missing or invalid sub-score.
const neutralScore = 50.0

// Momentum horizon weights. 24h dominates; 1h and 30d are tempering inputs.
const (
	horizon1hWeight  = 0.15
	horizon24hWeight = 0.40
	horizon7dWeight  = 0.30
	horizon30dWeight = 0.15
)

// momentumStep maps an absolute percent change onto a signed step bonus.
// Deliberately a piecewise step function, not a regression: the bands keep
// the breakdown explainable ("strong 24h move" rather than a coefficient).
func momentumStep(change float64) float64 {
	abs := util.Abs(change)
	var step float64
	switch {
	case abs >= 15: // strong
		step = 40
	case abs >= 5: // moderate
		step = 24
	case abs >= 2: // weak
		step = 10
	default:
		step = 0
	}
	return step * util.Sign(change)
}

// scorePriceMomentum blends the four horizon changes into one 0-100 score
// around a neutral base of 50.
func scorePriceMomentum(snap *models.AssetSnapshot) float64 {
	s := neutralScore +
		horizon1hWeight*momentumStep(snap.Change1h) +
		horizon24hWeight*momentumStep(snap.Change24h) +
		horizon7dWeight*momentumStep(snap.Change7d) +
		horizon30dWeight*momentumStep(snap.Change30d)
	return util.ClampScore(s)
}

// scoreVolume bands the volume/market-cap ratio and adjusts by the 24h
// volume change. A spike (3x market cap turned over in a day) is the
// strongest activity signal the provider gives us.
func scoreVolume(snap *models.AssetSnapshot) float64 {
	ratio := snap.VolumeRatio()

	var s float64
	switch {
	case ratio >= 3: // spike
		s = 88
	case ratio >= 2: // high
		s = 72
	case ratio >= 1: // normal
		s = 60
	case ratio >= 0.5: // low
		s = 45
	default:
		s = 32
	}

	// Rising volume nudges up, drying volume nudges down, bounded +-10.
	s += util.Clamp(snap.VolumeChange24h/10, -10, 10)
	return util.ClampScore(s)
}

// scoreMarketPosition bands market-cap rank and adjusts by market-cap
// 24h change.
func scoreMarketPosition(snap *models.AssetSnapshot) float64 {
	var s float64
	switch {
	case !snap.Ranked():
		s = 30
	case snap.MarketCapRank <= 10:
		s = 88
	case snap.MarketCapRank <= 50:
		s = 75
	case snap.MarketCapRank <= 100:
		s = 65
	case snap.MarketCapRank <= 500:
		s = 50
	default:
		s = 35
	}

	s += util.Clamp(snap.MarketCapChange24h, -10, 10)
	return util.ClampScore(s)
}

// blendSentiment combines the news and social sub-scores 70/30. A missing
// sub-score scores neutral rather than failing the asset.
func blendSentiment(news, social *float64) float64 {
	n := subScoreOrNeutral(news)
	s := subScoreOrNeutral(social)
	return util.ClampScore(0.7*n + 0.3*s)
}

// scoreVolatility bands the absolute 24h change. Movement is opportunity
// for the shorter timeframes, so larger swings score higher.
func scoreVolatility(snap *models.AssetSnapshot) float64 {
	abs := util.Abs(snap.Change24h)
	switch {
	case abs > 20:
		return 88
	case abs > 10:
		return 70
	case abs > 5:
		return 55
	case abs > 2:
		return 45
	default:
		return 35
	}
}

// subScoreOrNeutral clamps a provider sub-score, substituting neutral for
// missing or out-of-range values.
func subScoreOrNeutral(v *float64) float64 {
	if !validSubScore(v) {
		return neutralScore
	}
	return *v
}

func validSubScore(v *float64) bool {
	if v == nil {
		return false
	}
	f := *v
	// NaN guard: NaN fails every comparison including this one.
	if f != f {
		return false
	}
	return f >= 0 && f <= 100
}
