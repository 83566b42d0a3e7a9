package classify

import (
	"testing"

	"CoinPulse/internal/domain/models"
)

func TestClassifyScalping(t *testing.T) {
	out := Classify(Input{
		Composite:  87,
		Volatility: VolExtreme,
		Strength:   StrengthStrong,
		Volume:     VolumeHigh,
		Risk:       40,
		Liquidity:  models.GradeAPlus,
	})
	if out.Timeframe != models.TimeframeScalping {
		t.Fatalf("Timeframe = %q, want %q", out.Timeframe, models.TimeframeScalping)
	}
	if out.Priority != "immediate" {
		t.Fatalf("Priority = %q, want immediate", out.Priority)
	}
	if out.Recommendation.Action != models.ActionStrongBuy {
		t.Fatalf("Action = %q, want %q", out.Recommendation.Action, models.ActionStrongBuy)
	}
	if out.Recommendation.Confidence != models.ConfidenceHigh {
		t.Fatalf("Confidence = %q, want HIGH", out.Recommendation.Confidence)
	}
}

// The scalping liquidity gate admits grade D. The rule is part of the
// published table; this pins it so a future tightening is a deliberate,
// test-breaking change rather than a silent one.
func TestClassifyScalpingAdmitsGradeD(t *testing.T) {
	base := Input{
		Composite:  60,
		Volatility: VolHigh,
		Strength:   StrengthStrong,
		Volume:     VolumeHigh,
		Risk:       50,
	}

	for _, g := range []models.LiquidityGrade{models.GradeAPlus, models.GradeD} {
		in := base
		in.Liquidity = g
		if out := Classify(in); out.Timeframe != models.TimeframeScalping {
			t.Fatalf("grade %q: Timeframe = %q, want SCALPING", g, out.Timeframe)
		}
	}
}

func TestClassifyDayTrading(t *testing.T) {
	out := Classify(Input{
		Composite:  58,
		Volatility: VolModerate,
		Strength:   StrengthModerate,
		Volume:     VolumeModerate,
		Risk:       55,
		Liquidity:  models.GradeB,
	})
	if out.Timeframe != models.TimeframeDayTrade {
		t.Fatalf("Timeframe = %q, want %q", out.Timeframe, models.TimeframeDayTrade)
	}
	if out.Priority != "high" {
		t.Fatalf("Priority = %q, want high", out.Priority)
	}
}

func TestClassifySwingNeedsLiquidity(t *testing.T) {
	in := Input{
		Composite:  45,
		Volatility: VolLow, // excludes scalping and day trading
		Strength:   StrengthModerate,
		Volume:     VolumeModerate,
		Risk:       50,
		Liquidity:  models.GradeCPlus,
	}
	if out := Classify(in); out.Timeframe != models.TimeframeSwing {
		t.Fatalf("Timeframe = %q, want SWING_TRADING", out.Timeframe)
	}

	// One grade below the C+ gate falls through to long term.
	in.Liquidity = models.GradeC
	if out := Classify(in); out.Timeframe != models.TimeframeLongTerm {
		t.Fatalf("grade C: Timeframe = %q, want LONG_TERM", out.Timeframe)
	}
}

func TestClassifyLongTermCatchesRiskyTail(t *testing.T) {
	out := Classify(Input{
		Composite:  43,
		Volatility: VolLow,
		Strength:   StrengthWeak,
		Volume:     VolumeLow,
		Risk:       70,
		Liquidity:  models.GradeD,
	})
	if out.Timeframe != models.TimeframeLongTerm {
		t.Fatalf("Timeframe = %q, want %q", out.Timeframe, models.TimeframeLongTerm)
	}
	if out.Priority != "low" {
		t.Fatalf("Priority = %q, want low", out.Priority)
	}
}

func TestClassifyReject(t *testing.T) {
	cases := []struct {
		name string
		in   Input
	}{
		{"composite below floor", Input{Composite: 15, Risk: 30, Liquidity: models.GradeA}},
		{"risk above ceiling", Input{Composite: 60, Risk: 97, Volatility: VolLow, Liquidity: models.GradeA}},
	}
	for _, tc := range cases {
		out := Classify(tc.in)
		if out.Timeframe != models.TimeframeReject {
			t.Fatalf("%s: Timeframe = %q, want REJECT", tc.name, out.Timeframe)
		}
		if out.Priority != "rejected" {
			t.Fatalf("%s: Priority = %q, want rejected", tc.name, out.Priority)
		}
	}
}

// Every input maps to exactly one timeframe; the fallback makes the rule
// table total over the whole input grid.
func TestClassifyTotal(t *testing.T) {
	known := map[models.Timeframe]bool{
		models.TimeframeScalping: true,
		models.TimeframeDayTrade: true,
		models.TimeframeSwing:    true,
		models.TimeframeLongTerm: true,
		models.TimeframeReject:   true,
	}
	grades := []models.LiquidityGrade{
		models.GradeAPlus, models.GradeA, models.GradeBPlus, models.GradeB,
		models.GradeCPlus, models.GradeC, models.GradeD,
	}
	for composite := 0.0; composite <= 100; composite += 12.5 {
		for risk := 0.0; risk <= 100; risk += 20 {
			for vol := VolLow; vol <= VolExtreme; vol++ {
				for str := StrengthWeak; str <= StrengthStrong; str++ {
					for _, g := range grades {
						out := Classify(Input{
							Composite:  composite,
							Volatility: vol,
							Strength:   str,
							Volume:     VolumeModerate,
							Risk:       risk,
							Liquidity:  g,
						})
						if !known[out.Timeframe] {
							t.Fatalf("unknown timeframe %q for composite=%v risk=%v", out.Timeframe, composite, risk)
						}
					}
				}
			}
		}
	}
}

func TestClassifyClampsOutOfRange(t *testing.T) {
	out := Classify(Input{Composite: 150, Risk: -10, Volatility: VolLow, Liquidity: models.GradeA})
	// Clamped to composite=100, risk=0: strong score, no short-term
	// volatility, falls to long term rather than panicking or rejecting.
	if out.Timeframe != models.TimeframeLongTerm {
		t.Fatalf("Timeframe = %q, want LONG_TERM", out.Timeframe)
	}
	if out.Recommendation.Action != models.ActionStrongBuy {
		t.Fatalf("Action = %q, want STRONG_BUY", out.Recommendation.Action)
	}
}

func TestRecommendLadder(t *testing.T) {
	cases := []struct {
		score      float64
		action     models.Action
		confidence models.Confidence
	}{
		{92, models.ActionStrongBuy, models.ConfidenceHigh},
		{85, models.ActionStrongBuy, models.ConfidenceHigh},
		{78, models.ActionBuy, models.ConfidenceMedium},
		{65, models.ActionWeakBuy, models.ConfidenceMedium},
		{57, models.ActionHold, models.ConfidenceLow},
		{50, models.ActionHold, models.ConfidenceLow},
		{40, models.ActionWeakSell, models.ConfidenceMedium},
		{27, models.ActionSell, models.ConfidenceMedium},
		{24, models.ActionStrongSell, models.ConfidenceHigh},
		{12, models.ActionStrongSell, models.ConfidenceHigh},
	}
	for _, tc := range cases {
		got := Recommend(tc.score)
		if got.Action != tc.action || got.Confidence != tc.confidence {
			t.Fatalf("Recommend(%v) = %v/%v, want %v/%v",
				tc.score, got.Action, got.Confidence, tc.action, tc.confidence)
		}
	}
}

// Each buy rung has a sell rung with the same confidence at the mirrored
// threshold: 85 with 24, 75 with 34, 62 with 47, and the hold band on
// both sides of the midpoint.
func TestRecommendLadderSymmetry(t *testing.T) {
	mirror := map[models.Action]models.Action{
		models.ActionStrongBuy: models.ActionStrongSell,
		models.ActionBuy:       models.ActionSell,
		models.ActionWeakBuy:   models.ActionWeakSell,
		models.ActionHold:      models.ActionHold,
	}
	for s := 0.0; s <= 109; s++ {
		buy := Recommend(s)
		sell := Recommend(109 - s)
		if mirror[buy.Action] != sell.Action && mirror[sell.Action] != buy.Action {
			t.Fatalf("Recommend(%v) = %v but Recommend(%v) = %v", s, buy.Action, 109-s, sell.Action)
		}
		if buy.Confidence != sell.Confidence {
			t.Fatalf("confidence at %v/%v: %v vs %v", s, 109-s, buy.Confidence, sell.Confidence)
		}
	}
}

func TestDeriveLevels(t *testing.T) {
	if got := DeriveVolatility(-22); got != VolExtreme {
		t.Fatalf("DeriveVolatility(-22) = %v, want extreme", got)
	}
	if got := DeriveVolatility(3); got != VolLow {
		t.Fatalf("DeriveVolatility(3) = %v, want low", got)
	}
	if got := DeriveVolume(0.3); got != VolumeLow {
		t.Fatalf("DeriveVolume(0.3) = %v, want low", got)
	}
	b := models.ComponentScores{Price: 66, Volume: 88, Volatility: 88}
	if got := DeriveStrength(b); got != StrengthStrong {
		t.Fatalf("DeriveStrength = %v, want strong", got)
	}
}
