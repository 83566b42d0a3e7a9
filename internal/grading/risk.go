package grading

import (
	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/util"
)

// RiskScore grades snapshot risk 0-100, higher is riskier. Four independent
// additive bands: 24h volatility (0-40), volume inadequacy (0-30), rank
// thinness (0-20) and short-horizon instability (0-10). Every listed asset
// carries a volatility floor; there is no zero-risk crypto.
func RiskScore(snap *models.AssetSnapshot) float64 {
	r := volatilityRisk(snap.Change24h) +
		volumeRisk(snap.VolumeRatio()) +
		rankRisk(snap) +
		instabilityRisk(snap.Change1h)
	return util.ClampScore(r)
}

func volatilityRisk(change24h float64) float64 {
	switch abs := util.Abs(change24h); {
	case abs > 20:
		return 40
	case abs > 10:
		return 30
	case abs > 5:
		return 20
	case abs > 2:
		return 12
	default:
		return 10
	}
}

// volumeRisk is inverse-banded: the thinner the turnover relative to
// market cap, the harder the exit.
func volumeRisk(ratio float64) float64 {
	switch {
	case ratio < 0.25:
		return 30
	case ratio < 0.5:
		return 22
	case ratio < 1:
		return 14
	case ratio < 2:
		return 6
	default:
		return 0
	}
}

func rankRisk(snap *models.AssetSnapshot) float64 {
	if !snap.Ranked() {
		return 20
	}
	switch rank := snap.MarketCapRank; {
	case rank > 1000:
		return 20
	case rank > 500:
		return 15
	case rank > 100:
		return 10
	case rank > 50:
		return 5
	default:
		return 0
	}
}

func instabilityRisk(change1h float64) float64 {
	switch abs := util.Abs(change1h); {
	case abs >= 5:
		return 10
	case abs >= 2:
		return 6
	default:
		return 0
	}
}
