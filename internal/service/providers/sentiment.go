package providers

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/pkg/util"
)

// SentimentConfig configures the sentiment client.
type SentimentConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SentimentClient fetches news and social sentiment sub-scores.
type SentimentClient struct {
	httpBase
}

func NewSentimentClient(cfg SentimentConfig) *SentimentClient {
	return &SentimentClient{httpBase: newHTTPBase(cfg.BaseURL, cfg.Timeout)}
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// NewsScore returns the 0-100 news sentiment for a symbol.
func (c *SentimentClient) NewsScore(ctx context.Context, symbol string) (float64, error) {
	var resp scoreResponse
	if err := c.getJSON(ctx, "/v1/sentiment/news/"+symbol, nil, nil, &resp); err != nil {
		return 0, fmt.Errorf("news score %s: %w", symbol, err)
	}
	return util.ClampScore(resp.Score), nil
}

// SocialScore returns the 0-100 social sentiment for a symbol.
func (c *SentimentClient) SocialScore(ctx context.Context, symbol string) (float64, error) {
	var resp scoreResponse
	if err := c.getJSON(ctx, "/v1/sentiment/social/"+symbol, nil, nil, &resp); err != nil {
		return 0, fmt.Errorf("social score %s: %w", symbol, err)
	}
	return util.ClampScore(resp.Score), nil
}
