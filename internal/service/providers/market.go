package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/pkg/logger"
)

// SourceMarket is the rate-budget source name for the market data API.
const SourceMarket = "market"

// MarketConfig configures the market data client.
type MarketConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	DailyLimit   int
	MonthlyLimit int
}

// MarketClient fetches asset snapshots from the paginated markets endpoint.
// Every call reserves against the shared rate budget before touching the
// network; an exhausted budget surfaces as ErrQuotaExceeded with zero
// upstream cost.
type MarketClient struct {
	httpBase
	apiKey string
	budget *ratelimit.Budget
	log    *logger.Logger
}

// NewMarketClient builds the client and registers its budget source.
func NewMarketClient(cfg MarketConfig, budget *ratelimit.Budget, log *logger.Logger) *MarketClient {
	budget.Register(SourceMarket, cfg.DailyLimit, cfg.MonthlyLimit)
	return &MarketClient{
		httpBase: newHTTPBase(cfg.BaseURL, cfg.Timeout),
		apiKey:   cfg.APIKey,
		budget:   budget,
		log:      log,
	}
}

type marketRow struct {
	ID                 string   `json:"id"`
	Symbol             string   `json:"symbol"`
	CurrentPrice       float64  `json:"current_price"`
	MarketCap          float64  `json:"market_cap"`
	MarketCapRank      int      `json:"market_cap_rank"`
	TotalVolume        float64  `json:"total_volume"`
	VolumeChange24h    float64  `json:"volume_change_24h"`
	MarketCapChange24h float64  `json:"market_cap_change_percentage_24h"`
	Change1h           *float64 `json:"price_change_percentage_1h_in_currency"`
	Change24h          *float64 `json:"price_change_percentage_24h_in_currency"`
	Change7d           *float64 `json:"price_change_percentage_7d_in_currency"`
	Change30d          *float64 `json:"price_change_percentage_30d_in_currency"`
}

func (r *marketRow) snapshot(at time.Time) *models.AssetSnapshot {
	return &models.AssetSnapshot{
		ID:                 r.ID,
		Symbol:             strings.ToUpper(r.Symbol),
		Price:              r.CurrentPrice,
		MarketCap:          r.MarketCap,
		MarketCapRank:      r.MarketCapRank,
		Volume24h:          r.TotalVolume,
		VolumeChange24h:    r.VolumeChange24h,
		MarketCapChange24h: r.MarketCapChange24h,
		Change1h:           deref(r.Change1h),
		Change24h:          deref(r.Change24h),
		Change7d:           deref(r.Change7d),
		Change30d:          deref(r.Change30d),
		FetchedAt:          at,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// FetchBatch returns one page of the universe ordered by market-cap rank.
func (c *MarketClient) FetchBatch(ctx context.Context, page, perPage int) ([]*models.AssetSnapshot, error) {
	if err := c.reserve(); err != nil {
		return nil, err
	}

	var rows []marketRow
	query := map[string][]string{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"page":                    {fmt.Sprintf("%d", page)},
		"per_page":                {fmt.Sprintf("%d", perPage)},
		"price_change_percentage": {"1h,24h,7d,30d"},
	}
	if err := c.getJSON(ctx, "/coins/markets", query, c.headers(), &rows); err != nil {
		return nil, fmt.Errorf("fetch markets page %d: %w", page, err)
	}

	at := time.Now().UTC()
	snaps := make([]*models.AssetSnapshot, 0, len(rows))
	for i := range rows {
		snap := rows[i].snapshot(at)
		if !snap.Valid() {
			c.log.Warn("market: dropping malformed row",
				logger.String("id", rows[i].ID),
				logger.Int("page", page))
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// FetchOne returns a snapshot for a single asset id.
func (c *MarketClient) FetchOne(ctx context.Context, assetID string) (*models.AssetSnapshot, error) {
	if err := c.reserve(); err != nil {
		return nil, err
	}

	var rows []marketRow
	query := map[string][]string{
		"vs_currency":             {"usd"},
		"ids":                     {assetID},
		"price_change_percentage": {"1h,24h,7d,30d"},
	}
	if err := c.getJSON(ctx, "/coins/markets", query, c.headers(), &rows); err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", assetID, err)
	}
	if len(rows) == 0 {
		return nil, domsvc.ErrNoData
	}

	snap := rows[0].snapshot(time.Now().UTC())
	if !snap.Valid() {
		return nil, fmt.Errorf("fetch asset %s: malformed snapshot", assetID)
	}
	return snap, nil
}

// FetchMany returns snapshots for the given ids in a single upstream call.
// This is the batch tier's fetch path: one coalesced group, one reserve,
// one request.
func (c *MarketClient) FetchMany(ctx context.Context, assetIDs []string) ([]*models.AssetSnapshot, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}
	if err := c.reserve(); err != nil {
		return nil, err
	}

	var rows []marketRow
	query := map[string][]string{
		"vs_currency":             {"usd"},
		"ids":                     {strings.Join(assetIDs, ",")},
		"per_page":                {fmt.Sprintf("%d", len(assetIDs))},
		"price_change_percentage": {"1h,24h,7d,30d"},
	}
	if err := c.getJSON(ctx, "/coins/markets", query, c.headers(), &rows); err != nil {
		return nil, fmt.Errorf("fetch %d assets: %w", len(assetIDs), err)
	}

	at := time.Now().UTC()
	snaps := make([]*models.AssetSnapshot, 0, len(rows))
	for i := range rows {
		if snap := rows[i].snapshot(at); snap.Valid() {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

func (c *MarketClient) reserve() error {
	if err := c.budget.Reserve(SourceMarket); err != nil {
		return fmt.Errorf("market budget: %w", err)
	}
	if c.budget.NearLimit(SourceMarket) {
		c.log.Warn("market: approaching rate budget",
			logger.Int("remaining_today", c.budget.RemainingToday(SourceMarket)),
			logger.Int("remaining_month", c.budget.RemainingMonth(SourceMarket)))
	}
	return nil
}

func (c *MarketClient) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": c.apiKey}
}
