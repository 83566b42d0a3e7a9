package scoring

import (
	"math"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
)

func TestScorePriceMomentum(t *testing.T) {
	cases := []struct {
		name string
		snap models.AssetSnapshot
		want float64
	}{
		{"flat", models.AssetSnapshot{}, 50},
		{"strong 24h only", models.AssetSnapshot{Change24h: 22}, 66},
		{"strong 24h down", models.AssetSnapshot{Change24h: -22}, 34},
		{"all horizons strong up", models.AssetSnapshot{Change1h: 16, Change24h: 16, Change7d: 16, Change30d: 16}, 90},
		{"moderate everywhere", models.AssetSnapshot{Change1h: 6, Change24h: 6, Change7d: 6, Change30d: 6}, 74},
	}
	for _, tc := range cases {
		got := scorePriceMomentum(&tc.snap)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: scorePriceMomentum = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScoreVolume(t *testing.T) {
	spike := models.AssetSnapshot{MarketCap: 1e9, Volume24h: 3.5e9}
	if got := scoreVolume(&spike); got != 88 {
		t.Fatalf("spike ratio: scoreVolume = %v, want 88", got)
	}

	drying := models.AssetSnapshot{MarketCap: 1e9, Volume24h: 1.1e9, VolumeChange24h: -200}
	// Band 60, volume-change adjustment bounded at -10.
	if got := scoreVolume(&drying); got != 50 {
		t.Fatalf("drying volume: scoreVolume = %v, want 50", got)
	}

	noCap := models.AssetSnapshot{Volume24h: 1e9}
	if got := scoreVolume(&noCap); got != 32 {
		t.Fatalf("unknown market cap: scoreVolume = %v, want 32", got)
	}
}

func TestScoreMarketPosition(t *testing.T) {
	unranked := models.AssetSnapshot{MarketCapRank: models.RankUnranked}
	if got := scoreMarketPosition(&unranked); got != 30 {
		t.Fatalf("unranked: scoreMarketPosition = %v, want 30", got)
	}

	top := models.AssetSnapshot{MarketCapRank: 3, MarketCapChange24h: 4}
	if got := scoreMarketPosition(&top); got != 92 {
		t.Fatalf("top rank: scoreMarketPosition = %v, want 92", got)
	}

	// Adjustment is bounded even on extreme cap moves.
	pumped := models.AssetSnapshot{MarketCapRank: 600, MarketCapChange24h: 80}
	if got := scoreMarketPosition(&pumped); got != 45 {
		t.Fatalf("tail pump: scoreMarketPosition = %v, want 45", got)
	}
}

func TestBlendSentiment(t *testing.T) {
	news, social := 80.0, 40.0
	if got := blendSentiment(&news, &social); got != 68 {
		t.Fatalf("blendSentiment = %v, want 68", got)
	}
	if got := blendSentiment(nil, nil); got != 50 {
		t.Fatalf("blendSentiment(nil, nil) = %v, want 50", got)
	}
	out := 140.0
	if got := blendSentiment(&out, nil); got != 50 {
		t.Fatalf("out-of-range news must score neutral, got %v", got)
	}
}

func TestSubScoreValidation(t *testing.T) {
	nan := math.NaN()
	neg := -3.0
	ok := 72.0
	if validSubScore(&nan) {
		t.Fatal("NaN must be invalid")
	}
	if validSubScore(&neg) {
		t.Fatal("negative must be invalid")
	}
	if validSubScore(nil) {
		t.Fatal("nil must be invalid")
	}
	if !validSubScore(&ok) {
		t.Fatal("72 must be valid")
	}
	if got := subScoreOrNeutral(&nan); got != 50 {
		t.Fatalf("subScoreOrNeutral(NaN) = %v, want 50", got)
	}
}

func TestSessionFactor(t *testing.T) {
	cases := []struct {
		hour int
		want float64
	}{
		{14, 1.05}, // EU/US overlap
		{16, 1.05},
		{9, 1.02}, // EU morning
		{19, 1.02}, // US afternoon
		{3, 0.97}, // overnight
		{23, 0.97},
	}
	for _, tc := range cases {
		at := time.Date(2026, 8, 14, tc.hour, 30, 0, 0, time.UTC)
		if got := sessionFactor(at); got != tc.want {
			t.Fatalf("hour %d: sessionFactor = %v, want %v", tc.hour, got, tc.want)
		}
	}

	// Non-UTC input normalizes to UTC before bucketing.
	ny := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, 8, 14, 9, 0, 0, 0, ny) // 14:00 UTC
	if got := sessionFactor(at); got != 1.05 {
		t.Fatalf("zoned time: sessionFactor = %v, want 1.05", got)
	}
}

func TestPersistenceFactor(t *testing.T) {
	cases := []struct {
		name string
		b    models.ComponentScores
		want float64
	}{
		{"uniform bullish", models.ComponentScores{Price: 70, Volume: 65, Sentiment: 61, Whale: 80}, 1.10},
		{"uniform bearish", models.ComponentScores{Price: 30, Volume: 35, Sentiment: 39, Whale: 20}, 0.90},
		{"conflicting", models.ComponentScores{Price: 70, Volume: 30, Sentiment: 50, Whale: 50}, 0.95},
		{"no signal", models.ComponentScores{Price: 50, Volume: 50, Sentiment: 50, Whale: 50}, 1.0},
		{"two bullish only", models.ComponentScores{Price: 70, Volume: 65, Sentiment: 50, Whale: 50}, 1.0},
	}
	for _, tc := range cases {
		if got := persistenceFactor(tc.b); got != tc.want {
			t.Fatalf("%s: persistenceFactor = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScoreCorrelation(t *testing.T) {
	snap := &models.AssetSnapshot{MarketCapRank: 150, Change24h: 8}

	decoupled := &models.MarketContext{BTCCorrelation: 0.1}
	if got := scoreCorrelation(snap, decoupled); got != 58 {
		t.Fatalf("decoupled: scoreCorrelation = %v, want 58", got)
	}

	altSeason := &models.MarketContext{
		BTCCorrelation: 0.1,
		AltcoinSeason:  true,
		DominancePhase: models.DominanceAlt,
	}
	if got := scoreCorrelation(snap, altSeason); got != 73 {
		t.Fatalf("alt season: scoreCorrelation = %v, want 73", got)
	}

	// Majors do not get the altcoin season bonus.
	major := &models.AssetSnapshot{MarketCapRank: 2, Change24h: 8}
	if got := scoreCorrelation(major, altSeason); got != 63 {
		t.Fatalf("major in alt season: scoreCorrelation = %v, want 63", got)
	}

	coupled := &models.MarketContext{BTCCorrelation: 0.9, DominancePhase: models.DominanceBTC}
	if got := scoreCorrelation(snap, coupled); got != 37 {
		t.Fatalf("coupled: scoreCorrelation = %v, want 37", got)
	}
}

func TestScoreMacro(t *testing.T) {
	greed := &models.MarketContext{FearGreedIndex: 80}
	if got := scoreMacro(greed); got != 59 {
		t.Fatalf("greed: scoreMacro = %v, want 59", got)
	}

	fear := &models.MarketContext{FearGreedIndex: 20}
	if got := scoreMacro(fear); got != 41 {
		t.Fatalf("fear: scoreMacro = %v, want 41", got)
	}

	// Event penalty caps at two high-impact events.
	busy := &models.MarketContext{
		FearGreedIndex: 50,
		MacroEvents: []models.MacroEvent{
			{Name: "FOMC", Impact: "high"},
			{Name: "CPI", Impact: "high"},
			{Name: "NFP", Impact: "high"},
			{Name: "minor unlock", Impact: "low"},
		},
	}
	if got := scoreMacro(busy); got != 30 {
		t.Fatalf("event-heavy: scoreMacro = %v, want 30", got)
	}

	missing := &models.MarketContext{}
	if got := scoreMacro(missing); got != 50 {
		t.Fatalf("missing index: scoreMacro = %v, want 50", got)
	}
}
