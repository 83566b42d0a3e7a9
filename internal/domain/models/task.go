package models

import "time"

// Tier is the scheduling priority bucket. Lower value means higher urgency;
// the dispatcher always drains the lowest non-empty tier first.
type Tier int

const (
	TierCritical Tier = iota
	TierHigh
	TierMedium
	TierLow
	TierBatch

	// NumTiers is the number of scheduling tiers.
	NumTiers = int(TierBatch) + 1
)

func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	case TierBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= TierCritical && t <= TierBatch
}

// TierFromString parses a tier name as produced by Tier.String.
func TierFromString(s string) (Tier, bool) {
	switch s {
	case "critical":
		return TierCritical, true
	case "high":
		return TierHigh, true
	case "medium":
		return TierMedium, true
	case "low":
		return TierLow, true
	case "batch":
		return TierBatch, true
	}
	return 0, false
}

// QueueTask is one unit of compute work: refresh and re-score a single
// asset. Tasks are consumed exactly once successfully, or retried up to a
// bounded attempt count and then dropped with a recorded failure.
type QueueTask struct {
	AssetID    string
	Symbol     string
	Tier       Tier
	EnqueuedAt time.Time
	ReadyAt    time.Time // artificial delay for lower tiers; zero means immediately ready
	Attempts   int
}

// Ready reports whether the task may be dispatched at now.
func (t *QueueTask) Ready(now time.Time) bool {
	return t.ReadyAt.IsZero() || !now.Before(t.ReadyAt)
}

// WhaleTransfer is a large on-chain transfer observed on the whale feed.
// Transfers above the configured USD floor promote the asset to the
// critical tier.
type WhaleTransfer struct {
	Symbol    string
	AmountUSD float64
	Direction string // "exchange_in", "exchange_out", "unknown"
	At        time.Time
}
