package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/logger"
)

// MacroConfig configures the market-context client.
type MacroConfig struct {
	BaseURL string
	Timeout time.Duration
	Refresh time.Duration
}

// MacroClient serves the market-wide context. The context changes on the
// scale of minutes, so the client refreshes on its own cadence and every
// scoring run between refreshes shares one snapshot. A failed refresh
// serves the previous context instead of failing the scoring run.
type MacroClient struct {
	httpBase
	refresh time.Duration
	log     *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	cached *models.MarketContext
}

// MacroOption configures MacroClient.
type MacroOption func(*MacroClient)

// WithMacroClock overrides the time source, for tests.
func WithMacroClock(now func() time.Time) MacroOption {
	return func(c *MacroClient) { c.now = now }
}

func NewMacroClient(cfg MacroConfig, log *logger.Logger, opts ...MacroOption) *MacroClient {
	refresh := cfg.Refresh
	if refresh <= 0 {
		refresh = 5 * time.Minute
	}
	c := &MacroClient{
		httpBase: newHTTPBase(cfg.BaseURL, cfg.Timeout),
		refresh:  refresh,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type contextResponse struct {
	BTCCorrelation float64 `json:"btc_correlation"`
	AltcoinSeason  bool    `json:"altcoin_season"`
	DominancePhase string  `json:"dominance_phase"`
	FearGreedIndex float64 `json:"fear_greed_index"`
	Events         []struct {
		Name   string    `json:"name"`
		Impact string    `json:"impact"`
		At     time.Time `json:"at"`
	} `json:"events"`
}

// Context returns the current market context, refreshing it when stale.
func (c *MacroClient) Context(ctx context.Context) (*models.MarketContext, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && now.Sub(c.cached.RefreshedAt) < c.refresh {
		return c.cached, nil
	}

	fresh, err := c.fetch(ctx, now)
	if err != nil {
		if c.cached != nil {
			c.log.Warn("macro: refresh failed, serving stale context",
				logger.Error(err),
				logger.Duration("age", now.Sub(c.cached.RefreshedAt)))
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = fresh
	return c.cached, nil
}

func (c *MacroClient) fetch(ctx context.Context, now time.Time) (*models.MarketContext, error) {
	var resp contextResponse
	if err := c.getJSON(ctx, "/v1/context", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch market context: %w", err)
	}

	mctx := &models.MarketContext{
		BTCCorrelation: resp.BTCCorrelation,
		AltcoinSeason:  resp.AltcoinSeason,
		DominancePhase: resp.DominancePhase,
		FearGreedIndex: resp.FearGreedIndex,
		RefreshedAt:    now,
	}
	for _, e := range resp.Events {
		mctx.MacroEvents = append(mctx.MacroEvents, models.MacroEvent{
			Name:   e.Name,
			Impact: e.Impact,
			At:     e.At,
		})
	}
	return mctx, nil
}
