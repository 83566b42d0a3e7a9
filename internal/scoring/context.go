package scoring

import (
	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/util"
)

// altcoinSeasonChange is the 24h rise past which a non-top-100 asset is
// treated as participating in an altcoin season.
const altcoinSeasonChange = 5.0

// scoreCorrelation turns the market context's correlation state into a
// corrective component. Low BTC correlation means the asset trades on its
// own story; an altcoin season rewards non-majors that are actually moving.
func scoreCorrelation(snap *models.AssetSnapshot, mctx *models.MarketContext) float64 {
	s := neutralScore

	corr := util.Abs(mctx.BTCCorrelation)
	switch {
	case corr <= 0.3:
		s += 8
	case corr >= 0.8:
		s -= 8
	}

	if mctx.AltcoinSeason && snap.MarketCapRank > 100 && snap.Change24h > altcoinSeasonChange {
		s += 10
	}

	switch mctx.DominancePhase {
	case models.DominanceAlt:
		s += 5
	case models.DominanceBTC:
		s -= 5
	}

	return util.ClampScore(s)
}

// scoreMacro folds the fear & greed index and the macro calendar into a
// corrective component. High-impact events depress the score regardless of
// sentiment, capped at two events' worth.
func scoreMacro(mctx *models.MarketContext) float64 {
	fg := mctx.FearGreedIndex
	if fg <= 0 || fg > 100 {
		fg = neutralScore
	}

	s := neutralScore + (fg-neutralScore)*0.3

	events := mctx.HighImpactEvents()
	if events > 2 {
		events = 2
	}
	s -= float64(events) * 10

	return util.ClampScore(s)
}
