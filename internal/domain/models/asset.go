package models

import "time"

// RankUnranked marks assets the market data provider does not rank.
const RankUnranked = 0

// AssetSnapshot is a point-in-time view of a single asset as returned by the
// market data provider. Snapshots are immutable once fetched; refreshing an
// asset produces a new snapshot.
type AssetSnapshot struct {
	ID                 string
	Symbol             string
	Price              float64
	MarketCap          float64
	MarketCapRank      int // RankUnranked when the provider has no rank
	Volume24h          float64
	VolumeChange24h    float64 // percent
	MarketCapChange24h float64 // percent
	Change1h           float64 // percent
	Change24h          float64 // percent
	Change7d           float64 // percent
	Change30d          float64 // percent
	FetchedAt          time.Time
}

// VolumeRatio returns 24h volume over market cap, the primary liquidity input
// for scoring, risk and regime detection. Zero when market cap is unknown.
func (s *AssetSnapshot) VolumeRatio() float64 {
	if s.MarketCap <= 0 {
		return 0
	}
	return s.Volume24h / s.MarketCap
}

// Ranked reports whether the asset carries a market-cap rank.
func (s *AssetSnapshot) Ranked() bool {
	return s.MarketCapRank >= 1
}

// Valid reports whether the snapshot satisfies the minimal invariants
// (identity present, non-negative price). Snapshots failing Valid are
// malformed and must be rejected before scoring.
func (s *AssetSnapshot) Valid() bool {
	return s != nil && s.ID != "" && s.Price >= 0
}
