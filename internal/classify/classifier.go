package classify

import (
	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/util"
)

// VolatilityLevel buckets the 24h swing for gating purposes.
type VolatilityLevel int

const (
	VolLow VolatilityLevel = iota
	VolModerate
	VolHigh
	VolExtreme
)

// Strength buckets technical strength derived from the score breakdown.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthModerate
	StrengthStrong
)

// VolumeLevel buckets trading activity relative to market cap.
type VolumeLevel int

const (
	VolumeLow VolumeLevel = iota
	VolumeModerate
	VolumeHigh
)

// DeriveVolatility buckets the absolute 24h change.
func DeriveVolatility(change24h float64) VolatilityLevel {
	switch abs := util.Abs(change24h); {
	case abs > 20:
		return VolExtreme
	case abs > 10:
		return VolHigh
	case abs > 5:
		return VolModerate
	default:
		return VolLow
	}
}

// DeriveStrength averages the technical components of the breakdown.
func DeriveStrength(b models.ComponentScores) Strength {
	avg := (b.Price + b.Volume + b.Volatility) / 3
	switch {
	case avg >= 70:
		return StrengthStrong
	case avg >= 50:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// DeriveVolume buckets the volume/market-cap ratio.
func DeriveVolume(ratio float64) VolumeLevel {
	switch {
	case ratio >= 1:
		return VolumeHigh
	case ratio >= 0.5:
		return VolumeModerate
	default:
		return VolumeLow
	}
}

// Input is the classification tuple. Composite and Risk are raw scores;
// the levels are derived with the helpers above.
type Input struct {
	Composite  float64
	Volatility VolatilityLevel
	Strength   Strength
	Volume     VolumeLevel
	Risk       float64
	Liquidity  models.LiquidityGrade
}

// Outcome is the classification result. Exactly one timeframe is returned
// for any input.
type Outcome struct {
	Timeframe      models.Timeframe
	Priority       string
	Recommendation models.Recommendation
}

// Classify maps the input tuple to a holding-period strategy. Rules are
// first-match-wins, ordered from the shortest timeframe down; REJECT is the
// total fallback. Out-of-range risk or composite values are clamped, never
// propagated; callers wanting to log the violation check before calling.
//
// The SCALPING liquidity gate accepts every grade down to D. That matches
// the published rule table even though it can never fail; the day the table
// tightens, only the constant changes.
func Classify(in Input) Outcome {
	composite := util.ClampScore(in.Composite)
	risk := util.ClampScore(in.Risk)

	var tf models.Timeframe
	var priority string

	switch {
	case composite >= 55 && risk <= 80 &&
		(in.Volatility == VolHigh || in.Volatility == VolExtreme) &&
		in.Strength == StrengthStrong &&
		in.Liquidity.AtLeast(models.GradeD):
		tf, priority = models.TimeframeScalping, "immediate"

	case composite >= 35 && risk <= 90 &&
		(in.Volatility == VolModerate || in.Volatility == VolHigh) &&
		(in.Strength == StrengthModerate || in.Strength == StrengthStrong) &&
		in.Liquidity.AtLeast(models.GradeD):
		tf, priority = models.TimeframeDayTrade, "high"

	case composite >= 30 && risk <= 90 &&
		in.Volume >= VolumeModerate &&
		in.Liquidity.AtLeast(models.GradeCPlus):
		tf, priority = models.TimeframeSwing, "medium"

	case composite >= 20 && risk <= 95:
		tf, priority = models.TimeframeLongTerm, "low"

	default:
		tf, priority = models.TimeframeReject, "rejected"
	}

	return Outcome{
		Timeframe:      tf,
		Priority:       priority,
		Recommendation: Recommend(composite),
	}
}

// recommendLadder is the eight-bucket action ladder. The sell side
// mirrors the buy side rung for rung: 85 pairs with 24, 75 with 34,
// 62 with 47, and the hold band straddles the midpoint with one rung
// on each side.
var recommendLadder = []struct {
	min        float64
	action     models.Action
	confidence models.Confidence
}{
	{85, models.ActionStrongBuy, models.ConfidenceHigh},
	{75, models.ActionBuy, models.ConfidenceMedium},
	{62, models.ActionWeakBuy, models.ConfidenceMedium},
	{55, models.ActionHold, models.ConfidenceLow},
	{48, models.ActionHold, models.ConfidenceLow},
	{35, models.ActionWeakSell, models.ConfidenceMedium},
	{25, models.ActionSell, models.ConfidenceMedium},
	{0, models.ActionStrongSell, models.ConfidenceHigh},
}

// Recommend maps the raw composite onto the action ladder. The ladder is
// independent of the timeframe gates: an asset can be a STRONG_BUY on
// score and still classify REJECT on risk.
func Recommend(score float64) models.Recommendation {
	s := util.ClampScore(score)
	for _, rung := range recommendLadder {
		if s >= rung.min {
			return models.Recommendation{Action: rung.action, Confidence: rung.confidence}
		}
	}
	return models.Recommendation{Action: models.ActionStrongSell, Confidence: models.ConfidenceHigh}
}
