package grading

import "CoinPulse/internal/domain/models"

// Liquidity grade weighting: rank dominates because depth correlates with
// listing breadth, but turnover still carries 40%.
const (
	rankWeight   = 0.6
	volumeWeight = 0.4
)

// LiquidityGrade maps the snapshot onto the seven-tier letter scale. The
// grade thresholds are fixed; the half-grades (B+, C+) exist so the
// strategy classifier's gates can sit between full grades.
func LiquidityGrade(snap *models.AssetSnapshot) models.LiquidityGrade {
	score := rankWeight*rankBandScore(snap) + volumeWeight*volumeBandScore(snap.VolumeRatio())

	switch {
	case score >= 90:
		return models.GradeAPlus
	case score >= 80:
		return models.GradeA
	case score >= 70:
		return models.GradeBPlus
	case score >= 60:
		return models.GradeB
	case score >= 50:
		return models.GradeCPlus
	case score >= 40:
		return models.GradeC
	default:
		return models.GradeD
	}
}

func rankBandScore(snap *models.AssetSnapshot) float64 {
	if !snap.Ranked() {
		return 25
	}
	switch rank := snap.MarketCapRank; {
	case rank <= 10:
		return 95
	case rank <= 50:
		return 85
	case rank <= 100:
		return 75
	case rank <= 300:
		return 60
	case rank <= 500:
		return 50
	case rank <= 1000:
		return 40
	default:
		return 25
	}
}

func volumeBandScore(ratio float64) float64 {
	switch {
	case ratio >= 3:
		return 95
	case ratio >= 2:
		return 85
	case ratio >= 1:
		return 70
	case ratio >= 0.5:
		return 55
	case ratio >= 0.25:
		return 40
	default:
		return 25
	}
}
