package service

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// MarketDataProvider serves asset snapshots. Fetches are idempotent and
// cacheable; implementations must distinguish quota exhaustion from
// transient network failure via the errors in this package.
type MarketDataProvider interface {
	// FetchBatch returns one page of the asset universe ordered by
	// market-cap rank. Pages are 1-based.
	FetchBatch(ctx context.Context, page, perPage int) ([]*models.AssetSnapshot, error)

	// FetchOne returns a snapshot for a single asset id.
	FetchOne(ctx context.Context, assetID string) (*models.AssetSnapshot, error)

	// FetchMany returns snapshots for a set of asset ids in one upstream
	// call. Unknown ids are omitted from the result, not errors.
	FetchMany(ctx context.Context, assetIDs []string) ([]*models.AssetSnapshot, error)
}

// SentimentProvider returns a 0-100 sentiment sub-score for a symbol.
// Implementations return ErrNoData for unknown symbols; the caller
// substitutes neutral and degrades the signal's data quality.
type SentimentProvider interface {
	NewsScore(ctx context.Context, symbol string) (float64, error)
	SocialScore(ctx context.Context, symbol string) (float64, error)
}

// WhaleProvider returns a 0-100 whale-activity sub-score for a symbol.
type WhaleProvider interface {
	Score(ctx context.Context, symbol string) (float64, error)
}

// ContextProvider serves the market-wide context, refreshed independently
// of per-asset work.
type ContextProvider interface {
	Context(ctx context.Context) (*models.MarketContext, error)
}

// WhaleStream is a live feed of large transfers used to promote assets into
// the critical tier.
type WhaleStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.WhaleTransfer, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
}
