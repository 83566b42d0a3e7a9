package providers

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/pkg/util"
)

// WhaleConfig configures the whale activity client.
type WhaleConfig struct {
	BaseURL string
	Timeout time.Duration
}

// WhaleClient fetches the aggregated whale-activity sub-score, a rollup of
// recent large-transfer flow per symbol.
type WhaleClient struct {
	httpBase
}

func NewWhaleClient(cfg WhaleConfig) *WhaleClient {
	return &WhaleClient{httpBase: newHTTPBase(cfg.BaseURL, cfg.Timeout)}
}

// Score returns the 0-100 whale-activity sub-score for a symbol.
func (c *WhaleClient) Score(ctx context.Context, symbol string) (float64, error) {
	var resp scoreResponse
	if err := c.getJSON(ctx, "/v1/whales/"+symbol+"/score", nil, nil, &resp); err != nil {
		return 0, fmt.Errorf("whale score %s: %w", symbol, err)
	}
	return util.ClampScore(resp.Score), nil
}
