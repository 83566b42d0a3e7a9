package scoring

import (
	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/util"
)

// Regime detection thresholds.
const (
	volatileChange    = 20.0 // |24h %| above this is a volatile regime
	stableChange      = 5.0  // |24h %| below this is a stable regime
	thinVolumeRatio   = 0.5  // volume/mcap below this is low liquidity
	thinRankThreshold = 1000 // rank beyond this is low liquidity
)

// DetectRegime classifies the snapshot into a market regime. First match
// wins: volatile, then low liquidity, then stable, then normal. An asset
// moving 25% a day is volatile no matter how thin its book is.
func DetectRegime(snap *models.AssetSnapshot) models.Regime {
	change := util.Abs(snap.Change24h)

	switch {
	case change > volatileChange:
		return models.RegimeVolatile
	case snap.VolumeRatio() < thinVolumeRatio || !snap.Ranked() || snap.MarketCapRank > thinRankThreshold:
		return models.RegimeLowLiquidity
	case change < stableChange:
		return models.RegimeStable
	default:
		return models.RegimeNormal
	}
}
