package models

import "time"

// Dominance phases reported by the macro context provider.
const (
	DominanceBTC     = "btc"
	DominanceAlt     = "alt"
	DominanceNeutral = "neutral"
)

// MacroEvent is an entry on the macro calendar (rate decisions, CPI prints,
// large unlocks). Only impact is consumed by scoring.
type MacroEvent struct {
	Name   string
	Impact string // "low", "medium", "high"
	At     time.Time
}

// HighImpact reports whether the event should depress risk appetite.
func (e MacroEvent) HighImpact() bool {
	return e.Impact == "high"
}

// MarketContext carries the market-wide state shared by every scoring run.
// It is refreshed on its own cadence, independently of per-asset work; a
// zero-value context is safe and scores as neutral.
type MarketContext struct {
	BTCCorrelation float64 // [-1, 1] average correlation of alts to BTC
	AltcoinSeason  bool
	DominancePhase string
	FearGreedIndex float64 // [0, 100], 50 when unknown
	MacroEvents    []MacroEvent
	RefreshedAt    time.Time
}

// HighImpactEvents counts calendar entries flagged high impact.
func (c *MarketContext) HighImpactEvents() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, e := range c.MacroEvents {
		if e.HighImpact() {
			n++
		}
	}
	return n
}
