package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/internal/queue"
	"CoinPulse/internal/service/providers"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/pkg/cache"
	"CoinPulse/pkg/logger"
)

// SnapshotKeyPrefix namespaces cached asset snapshots.
const SnapshotKeyPrefix = "snapshot"

// Config holds the tier cadences and rank bands.
type Config struct {
	HighTo   int // rank ceiling for the high tier
	MediumTo int
	LowTo    int
	PageSize int

	HighInterval   time.Duration
	MediumInterval time.Duration
	LowInterval    time.Duration
	BatchInterval  time.Duration

	PageDelay   time.Duration // spacing between provider pages
	MediumDelay time.Duration // enqueue-time dispatch delays per tier
	LowDelay    time.Duration
	BatchDelay  time.Duration

	SnapshotTTL time.Duration
}

// band is one rank segment of the universe mapped to a tier.
type band struct {
	tier     models.Tier
	fromRank int // inclusive
	toRank   int // inclusive
	delay    time.Duration
}

// Scheduler drives the periodic refresh loops. Each tick walks the tier's
// rank band page by page: one provider call caches a page of snapshots and
// enqueues one task per asset. An exhausted budget aborts the remaining
// pages of the sweep and nothing else; already-enqueued tasks keep running.
type Scheduler struct {
	cfg     Config
	market  domsvc.MarketDataProvider
	stream  domsvc.WhaleStream // nil when the feed is disabled
	queue   *queue.Queue
	budget  *ratelimit.Budget
	cache   cache.Service
	metrics repository.Metrics
	log     *logger.Logger

	mu       sync.RWMutex
	bySymbol map[string]string // symbol -> asset id, learned from sweeps

	wg sync.WaitGroup
}

// New creates a scheduler. stream may be nil.
func New(
	cfg Config,
	market domsvc.MarketDataProvider,
	stream domsvc.WhaleStream,
	q *queue.Queue,
	budget *ratelimit.Budget,
	c cache.Service,
	metrics repository.Metrics,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		market:   market,
		stream:   stream,
		queue:    q,
		budget:   budget,
		cache:    c,
		metrics:  metrics,
		log:      log,
		bySymbol: make(map[string]string),
	}
}

// Start launches the tier loops and the whale feed consumer. Loops run
// until ctx is canceled; Wait blocks for their exit.
func (s *Scheduler) Start(ctx context.Context) {
	loops := []struct {
		interval time.Duration
		band     band
	}{
		{s.cfg.HighInterval, band{models.TierHigh, 1, s.cfg.HighTo, 0}},
		{s.cfg.MediumInterval, band{models.TierMedium, s.cfg.HighTo + 1, s.cfg.MediumTo, s.cfg.MediumDelay}},
		{s.cfg.LowInterval, band{models.TierLow, s.cfg.MediumTo + 1, s.cfg.LowTo, s.cfg.LowDelay}},
		{s.cfg.BatchInterval, band{models.TierBatch, s.cfg.LowTo + 1, 0, s.cfg.BatchDelay}},
	}

	for _, loop := range loops {
		s.wg.Add(1)
		go s.run(ctx, loop.interval, loop.band)
	}

	if s.stream != nil {
		s.wg.Add(1)
		go s.consumeWhaleFeed(ctx)
	}
}

// Wait blocks until every loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// run sweeps the band once immediately and then on every tick.
func (s *Scheduler) run(ctx context.Context, interval time.Duration, b band) {
	defer s.wg.Done()

	s.sweep(ctx, b)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, b)
		}
	}
}

// sweep fetches the band's pages and enqueues one task per asset.
func (s *Scheduler) sweep(ctx context.Context, b band) {
	start := time.Now()
	firstPage := (b.fromRank-1)/s.cfg.PageSize + 1
	lastPage := s.lastPage(b)
	enqueued := 0

	for page := firstPage; page <= lastPage; page++ {
		if ctx.Err() != nil {
			return
		}
		if s.budget.Exhausted(providers.SourceMarket) {
			s.log.Warn("sweep aborted on exhausted budget",
				logger.String("tier", b.tier.String()),
				logger.Int("page", page),
				logger.Int("last_page", lastPage))
			break
		}

		snaps, err := s.market.FetchBatch(ctx, page, s.cfg.PageSize)
		if err != nil {
			if errors.Is(err, domsvc.ErrQuotaExceeded) {
				s.log.Warn("sweep aborted on exhausted budget",
					logger.String("tier", b.tier.String()),
					logger.Int("page", page))
				break
			}
			s.metrics.RecordError("sweep_fetch")
			s.log.Error("sweep page fetch failed",
				logger.String("tier", b.tier.String()),
				logger.Int("page", page),
				logger.Error(err))
			// A bad page does not abort the sweep.
			continue
		}
		if len(snaps) == 0 {
			break // past the end of the listed universe
		}

		enqueued += s.enqueuePage(ctx, b, snaps)

		if page < lastPage && s.cfg.PageDelay > 0 {
			select {
			case <-time.After(s.cfg.PageDelay):
			case <-ctx.Done():
				return
			}
		}
	}

	s.metrics.RecordBudgetRemaining(providers.SourceMarket,
		s.budget.RemainingToday(providers.SourceMarket),
		s.budget.RemainingMonth(providers.SourceMarket))
	s.metrics.RecordLatency("sweep_"+b.tier.String(), time.Since(start).Seconds())
	s.log.Info("sweep complete",
		logger.String("tier", b.tier.String()),
		logger.Int("enqueued", enqueued),
		logger.Duration("took", time.Since(start)))
}

func (s *Scheduler) lastPage(b band) int {
	if b.toRank <= 0 {
		// Open-ended tail band; sweep until the provider runs dry, with a
		// hard page cap so a provider bug cannot spin the budget away.
		return (b.fromRank-1)/s.cfg.PageSize + 40
	}
	return (b.toRank - 1) / s.cfg.PageSize + 1
}

// enqueuePage caches the page's snapshots and enqueues tasks for the
// assets inside the band's rank range.
func (s *Scheduler) enqueuePage(ctx context.Context, b band, snaps []*models.AssetSnapshot) int {
	now := time.Now()
	var readyAt time.Time
	if b.delay > 0 {
		readyAt = now.Add(b.delay)
	}

	enqueued := 0
	for _, snap := range snaps {
		if err := s.cache.Set(ctx, cache.Key(SnapshotKeyPrefix, snap.ID), snap, s.cfg.SnapshotTTL); err != nil {
			s.metrics.RecordError("snapshot_cache")
		}
		s.learnSymbol(snap.Symbol, snap.ID)

		if snap.Ranked() && snap.MarketCapRank < b.fromRank {
			// Page boundary overlap with the faster tier above; it owns
			// this asset.
			continue
		}
		if b.toRank > 0 && snap.Ranked() && snap.MarketCapRank > b.toRank {
			continue
		}

		err := s.queue.Enqueue(&models.QueueTask{
			AssetID:    snap.ID,
			Symbol:     snap.Symbol,
			Tier:       b.tier,
			EnqueuedAt: now,
			ReadyAt:    readyAt,
		})
		if err != nil {
			if errors.Is(err, queue.ErrQueueFull) {
				s.log.Warn("queue full, shedding remainder of page",
					logger.String("tier", b.tier.String()))
				return enqueued
			}
			s.metrics.RecordError("enqueue")
			continue
		}
		enqueued++
	}
	return enqueued
}

// consumeWhaleFeed turns large transfers into critical-tier tasks.
func (s *Scheduler) consumeWhaleFeed(ctx context.Context) {
	defer s.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.stream.Connect(ctx); err != nil {
			s.metrics.RecordError("whale_feed_connect")
			s.log.Error("whale feed connect failed", logger.Error(err))
			if !s.sleep(ctx, 5*time.Second) {
				return
			}
			continue
		}

		transfers, errs := s.stream.Read(ctx)
	readLoop:
		for {
			select {
			case <-ctx.Done():
				_ = s.stream.Close()
				return
			case t, ok := <-transfers:
				if !ok {
					break readLoop
				}
				s.promote(t)
			case err, ok := <-errs:
				if !ok {
					break readLoop
				}
				s.metrics.RecordError("whale_feed_read")
				s.log.Warn("whale feed error, reconnecting", logger.Error(err))
				break readLoop
			}
		}

		if err := s.stream.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("whale feed reconnect failed", logger.Error(err))
			if !s.sleep(ctx, 5*time.Second) {
				return
			}
		}
	}
}

// promote enqueues a critical task for the transferred asset. Transfers
// for symbols outside the known universe are ignored.
func (s *Scheduler) promote(t *models.WhaleTransfer) {
	s.mu.RLock()
	assetID, ok := s.bySymbol[t.Symbol]
	s.mu.RUnlock()
	if !ok {
		s.log.Debug("whale transfer for unknown symbol", logger.String("symbol", t.Symbol))
		return
	}

	err := s.queue.Enqueue(&models.QueueTask{
		AssetID:    assetID,
		Symbol:     t.Symbol,
		Tier:       models.TierCritical,
		EnqueuedAt: time.Now(),
	})
	if err != nil && !errors.Is(err, queue.ErrQueueFull) {
		s.metrics.RecordError("enqueue")
		return
	}
	s.log.Info("whale transfer promoted to critical",
		logger.String("symbol", t.Symbol),
		logger.Float64("amount_usd", t.AmountUSD),
		logger.String("direction", t.Direction))
}

func (s *Scheduler) learnSymbol(symbol, assetID string) {
	s.mu.Lock()
	s.bySymbol[symbol] = assetID
	s.mu.Unlock()
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
