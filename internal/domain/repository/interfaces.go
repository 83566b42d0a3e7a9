package repository

import (
	"context"
	"time"

	"CoinPulse/internal/domain/models"
)

// SignalStore is the durable sink for computed signals.
type SignalStore interface {
	// Upsert replaces the current signal for the asset and appends to history.
	Upsert(ctx context.Context, sig *models.Signal) error

	// GetCurrent returns the latest signal for the asset, or nil when the
	// asset has never been scored.
	GetCurrent(ctx context.Context, assetID string) (*models.Signal, error)

	// History returns signals computed since the given time, newest first.
	History(ctx context.Context, assetID string, since time.Time, limit int) ([]*models.Signal, error)

	Close() error
}

// AlertPublisher delivers strong-signal alerts. Delivery is at-least-once;
// exactly-once is explicitly out of scope.
type AlertPublisher interface {
	Emit(ctx context.Context, ev *models.AlertEvent) error
	Close() error
}

// Metrics abstracts operational metrics recording.
type Metrics interface {
	RecordSignalComputed(tier, regime string)
	RecordTaskDropped(tier, reason string)
	RecordTaskRetried(tier string)
	RecordQueueDepth(tier string, depth int)
	RecordBudgetRemaining(source string, today, month int)
	RecordAlertEmitted(reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
