package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CoinPulse/internal/classify"
	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/internal/grading"
	"CoinPulse/internal/scheduler"
	"CoinPulse/internal/scoring"
	"CoinPulse/pkg/cache"
	"CoinPulse/pkg/logger"
)

// SignalKeyPrefix namespaces cached signals.
const SignalKeyPrefix = "signal"

// ComputerConfig holds the cache TTLs for the compute path.
type ComputerConfig struct {
	SnapshotTTL time.Duration
	SignalTTL   time.Duration
}

// Computer runs the full per-asset pipeline: snapshot, sub-scores, market
// context, composite score, risk and liquidity grading, strategy
// classification, persistence and alerting. It is the handler behind the
// worker pool.
type Computer struct {
	cfg       ComputerConfig
	engine    *scoring.Engine
	market    domsvc.MarketDataProvider
	sentiment domsvc.SentimentProvider
	whale     domsvc.WhaleProvider
	macro     domsvc.ContextProvider
	store     repository.SignalStore
	alerts    repository.AlertPublisher
	cache     cache.Service
	metrics   repository.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// ComputerOption configures Computer.
type ComputerOption func(*Computer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ComputerOption {
	return func(c *Computer) { c.now = now }
}

// NewComputer wires the pipeline. alerts may be nil when alerting is
// disabled.
func NewComputer(
	cfg ComputerConfig,
	engine *scoring.Engine,
	market domsvc.MarketDataProvider,
	sentiment domsvc.SentimentProvider,
	whale domsvc.WhaleProvider,
	macro domsvc.ContextProvider,
	store repository.SignalStore,
	alerts repository.AlertPublisher,
	c cache.Service,
	metrics repository.Metrics,
	log *logger.Logger,
	opts ...ComputerOption,
) *Computer {
	comp := &Computer{
		cfg:       cfg,
		engine:    engine,
		market:    market,
		sentiment: sentiment,
		whale:     whale,
		macro:     macro,
		store:     store,
		alerts:    alerts,
		cache:     c,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(comp)
	}
	return comp
}

// Process handles one queue task. A fresh cached signal short-circuits the
// whole pipeline with zero upstream calls; critical-tier tasks always
// recompute because a whale transfer just invalidated whatever we knew.
func (c *Computer) Process(ctx context.Context, task *models.QueueTask) error {
	if task.Tier != models.TierCritical {
		var cached models.Signal
		if err := c.cache.Get(ctx, cache.Key(SignalKeyPrefix, task.AssetID), &cached); err == nil {
			c.log.Debug("signal cache hit, skipping recompute",
				logger.String("asset", task.AssetID),
				logger.String("tier", task.Tier.String()))
			return nil
		}
	}

	snap, err := c.snapshot(ctx, task.AssetID)
	if err != nil {
		return err
	}
	return c.computeFromSnapshot(ctx, task, snap)
}

// ProcessBatch handles one coalesced batch-tier group: a single upstream
// call refreshes every stale snapshot, then each asset runs the normal
// pipeline.
func (c *Computer) ProcessBatch(ctx context.Context, group []*models.QueueTask) {
	missing := make([]string, 0, len(group))
	for _, task := range group {
		ok, err := c.cache.Exists(ctx, cache.Key(scheduler.SnapshotKeyPrefix, task.AssetID))
		if err != nil || !ok {
			missing = append(missing, task.AssetID)
		}
	}

	if len(missing) > 0 {
		snaps, err := c.market.FetchMany(ctx, missing)
		if err != nil {
			c.metrics.RecordError("batch_fetch")
			c.log.Warn("batch refresh failed, scoring on cached data only",
				logger.Int("missing", len(missing)),
				logger.Error(err))
		}
		for _, snap := range snaps {
			if err := c.cache.Set(ctx, cache.Key(scheduler.SnapshotKeyPrefix, snap.ID), snap, c.cfg.SnapshotTTL); err != nil {
				c.metrics.RecordError("snapshot_cache")
			}
		}
	}

	for _, task := range group {
		var snap models.AssetSnapshot
		if err := c.cache.Get(ctx, cache.Key(scheduler.SnapshotKeyPrefix, task.AssetID), &snap); err != nil {
			c.metrics.RecordTaskDropped(task.Tier.String(), "no_snapshot")
			continue
		}
		if err := c.computeFromSnapshot(ctx, task, &snap); err != nil {
			c.metrics.RecordTaskDropped(task.Tier.String(), "failed")
			c.log.Error("batch compute failed",
				logger.String("asset", task.AssetID),
				logger.Error(err))
		}
	}
}

// snapshot returns a cached snapshot or fetches one on a miss. Fetch
// errors propagate so the pool can retry or drop by kind.
func (c *Computer) snapshot(ctx context.Context, assetID string) (*models.AssetSnapshot, error) {
	var snap models.AssetSnapshot
	if err := c.cache.Get(ctx, cache.Key(scheduler.SnapshotKeyPrefix, assetID), &snap); err == nil {
		return &snap, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.metrics.RecordError("snapshot_cache")
	}

	fetched, err := c.market.FetchOne(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", assetID, err)
	}
	if err := c.cache.Set(ctx, cache.Key(scheduler.SnapshotKeyPrefix, assetID), fetched, c.cfg.SnapshotTTL); err != nil {
		c.metrics.RecordError("snapshot_cache")
	}
	return fetched, nil
}

func (c *Computer) computeFromSnapshot(ctx context.Context, task *models.QueueTask, snap *models.AssetSnapshot) error {
	if !snap.Valid() {
		return fmt.Errorf("compute %s: malformed snapshot", task.AssetID)
	}

	inputs := c.gatherInputs(ctx, snap.Symbol)
	mctx := c.marketContext(ctx)

	now := c.now()
	res := c.engine.Score(snap, inputs, mctx, now)
	risk := grading.RiskScore(snap)
	liquidity := grading.LiquidityGrade(snap)

	outcome := classify.Classify(classify.Input{
		Composite:  res.Composite,
		Volatility: classify.DeriveVolatility(snap.Change24h),
		Strength:   classify.DeriveStrength(res.Breakdown),
		Volume:     classify.DeriveVolume(snap.VolumeRatio()),
		Risk:       risk,
		Liquidity:  liquidity,
	})

	sig := &models.Signal{
		AssetID:        snap.ID,
		Symbol:         snap.Symbol,
		FinalScore:     res.Composite,
		Breakdown:      res.Breakdown,
		Regime:         res.Regime.String(),
		Recommendation: outcome.Recommendation,
		Timeframe:      outcome.Timeframe,
		Priority:       outcome.Priority,
		RiskScore:      risk,
		LiquidityGrade: liquidity,
		DataQuality:    res.Quality,
		ComputedAt:     now,
	}

	if err := c.store.Upsert(ctx, sig); err != nil {
		// The store is our durable output; a write failure is worth a
		// retry before the signal is lost.
		c.metrics.RecordError("store_upsert")
		return domsvc.Transient(fmt.Errorf("persist signal %s: %w", sig.AssetID, err))
	}

	if err := c.cache.Set(ctx, cache.Key(SignalKeyPrefix, sig.AssetID), sig, c.cfg.SignalTTL); err != nil {
		c.metrics.RecordError("signal_cache")
	}

	c.metrics.RecordSignalComputed(task.Tier.String(), sig.Regime)
	c.emitAlert(ctx, sig)

	c.log.Debug("signal computed",
		logger.String("asset", sig.AssetID),
		logger.Float64("score", sig.FinalScore),
		logger.String("timeframe", string(sig.Timeframe)),
		logger.String("quality", string(sig.DataQuality)))
	return nil
}

// gatherInputs collects the optional sub-scores. Any provider failure
// leaves its input nil; the engine substitutes neutral and degrades the
// data-quality flag.
func (c *Computer) gatherInputs(ctx context.Context, symbol string) scoring.Inputs {
	var in scoring.Inputs

	if news, err := c.sentiment.NewsScore(ctx, symbol); err == nil {
		in.News = &news
	} else if !errors.Is(err, domsvc.ErrNoData) {
		c.metrics.RecordError("sentiment_news")
	}

	if social, err := c.sentiment.SocialScore(ctx, symbol); err == nil {
		in.Social = &social
	} else if !errors.Is(err, domsvc.ErrNoData) {
		c.metrics.RecordError("sentiment_social")
	}

	if whale, err := c.whale.Score(ctx, symbol); err == nil {
		in.Whale = &whale
	} else if !errors.Is(err, domsvc.ErrNoData) {
		c.metrics.RecordError("whale_score")
	}

	return in
}

func (c *Computer) marketContext(ctx context.Context) *models.MarketContext {
	mctx, err := c.macro.Context(ctx)
	if err != nil {
		c.metrics.RecordError("market_context")
		c.log.Warn("market context unavailable, scoring neutral", logger.Error(err))
		return nil
	}
	return mctx
}

func (c *Computer) emitAlert(ctx context.Context, sig *models.Signal) {
	if c.alerts == nil || !sig.Strong() {
		return
	}

	reason := "strong_buy"
	if sig.FinalScore <= 20 {
		reason = "strong_sell"
	}

	ev := &models.AlertEvent{
		AssetID:   sig.AssetID,
		Symbol:    sig.Symbol,
		Score:     sig.FinalScore,
		Action:    sig.Recommendation.Action,
		Timeframe: sig.Timeframe,
		Reason:    reason,
		At:        sig.ComputedAt,
	}
	if err := c.alerts.Emit(ctx, ev); err != nil {
		// Alerting is best-effort on top of the persisted signal.
		c.metrics.RecordError("alert_emit")
		c.log.Error("alert emit failed",
			logger.String("asset", sig.AssetID),
			logger.Error(err))
		return
	}
	c.metrics.RecordAlertEmitted(reason)
}
