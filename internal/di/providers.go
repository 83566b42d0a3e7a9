package di

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/internal/handler/api"
	"CoinPulse/internal/queue"
	internalrepo "CoinPulse/internal/repository"
	"CoinPulse/internal/scheduler"
	"CoinPulse/internal/scoring"
	"CoinPulse/internal/service/providers"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/internal/service/whalefeed"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	pkgkafka "CoinPulse/pkg/kafka"
	"CoinPulse/pkg/logger"
	"CoinPulse/pkg/metrics"
	"CoinPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBudget creates the shared rate-budget tracker.
func ProvideBudget() *ratelimit.Budget {
	return ratelimit.NewBudget()
}

// ProvideCache creates the layered snapshot/signal cache. Redis is the
// optional L2; without it the in-process LRU carries everything.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memOpts := []cache.MemoryOption{cache.WithMemoryMaxSize(cfg.Cache.MemoryMax)}

	if !cfg.Cache.Redis.Enabled {
		return cache.NewLayeredCache(nil, memOpts...), nil
	}

	redis, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redis, memOpts...), nil
}

// ProvideClickHouseClient creates the ClickHouse client and ensures the
// signals schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SignalsSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSignalStore creates the ClickHouse-backed signal store.
func ProvideSignalStore(chClient *pkgch.Client) repository.SignalStore {
	return internalrepo.NewClickHouseSignalStore(chClient.DB())
}

// ProvideAlertPublisher creates the Kafka alert publisher, or nil when
// alerting is disabled.
func ProvideAlertPublisher(cfg *config.Config) (repository.AlertPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideEngine creates the scoring engine with the default regime
// weights.
func ProvideEngine() *scoring.Engine {
	return scoring.NewEngine()
}

// ProvideMarketProvider creates the market data client.
func ProvideMarketProvider(cfg *config.Config, budget *ratelimit.Budget, log *logger.Logger) domsvc.MarketDataProvider {
	return providers.NewMarketClient(providers.MarketConfig{
		BaseURL:      cfg.Providers.Market.BaseURL,
		APIKey:       cfg.Providers.Market.APIKey,
		Timeout:      cfg.Providers.Market.Timeout,
		DailyLimit:   cfg.Providers.Market.DailyLimit,
		MonthlyLimit: cfg.Providers.Market.MonthlyLimit,
	}, budget, log)
}

// ProvideSentimentProvider creates the sentiment client.
func ProvideSentimentProvider(cfg *config.Config) domsvc.SentimentProvider {
	return providers.NewSentimentClient(providers.SentimentConfig{
		BaseURL: cfg.Providers.Sentiment.BaseURL,
		Timeout: cfg.Providers.Sentiment.Timeout,
	})
}

// ProvideWhaleProvider creates the whale-activity client.
func ProvideWhaleProvider(cfg *config.Config) domsvc.WhaleProvider {
	return providers.NewWhaleClient(providers.WhaleConfig{
		BaseURL: cfg.Providers.Whale.BaseURL,
		Timeout: cfg.Providers.Whale.Timeout,
	})
}

// ProvideContextProvider creates the market-context client.
func ProvideContextProvider(cfg *config.Config, log *logger.Logger) domsvc.ContextProvider {
	return providers.NewMacroClient(providers.MacroConfig{
		BaseURL: cfg.Providers.Macro.BaseURL,
		Timeout: cfg.Providers.Macro.Timeout,
		Refresh: cfg.Providers.Macro.Refresh,
	}, log)
}

// ProvideWhaleStream creates the whale transfer feed, or nil when
// disabled.
func ProvideWhaleStream(cfg *config.Config, log *logger.Logger) domsvc.WhaleStream {
	if !cfg.WhaleFeed.Enabled {
		return nil
	}
	return whalefeed.New(whalefeed.Config{
		URL:            cfg.WhaleFeed.URL,
		APIKey:         cfg.WhaleFeed.APIKey,
		MinTransferUSD: cfg.WhaleFeed.MinTransferUSD,
		ReconnectDelay: cfg.WhaleFeed.ReconnectDelay,
		PingInterval:   cfg.WhaleFeed.PingInterval,
	}, log)
}

// ProvideQueue creates the priority task queue.
func ProvideQueue(cfg *config.Config, m repository.Metrics) *queue.Queue {
	return queue.New(cfg.Queue.MaxDepth, m)
}

// ProvideComputer wires the per-asset compute pipeline.
func ProvideComputer(
	cfg *config.Config,
	engine *scoring.Engine,
	market domsvc.MarketDataProvider,
	sentiment domsvc.SentimentProvider,
	whale domsvc.WhaleProvider,
	macro domsvc.ContextProvider,
	store repository.SignalStore,
	alerts repository.AlertPublisher,
	c cache.Service,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Computer {
	return usecase.NewComputer(usecase.ComputerConfig{
		SnapshotTTL: cfg.Cache.SnapshotTTL,
		SignalTTL:   cfg.Cache.SignalTTL,
	}, engine, market, sentiment, whale, macro, store, alerts, c, m, log)
}

// ProvideCoalescer creates the batch-tier group coalescer.
func ProvideCoalescer(cfg *config.Config, comp *usecase.Computer) *queue.Coalescer {
	return queue.NewCoalescer(cfg.Queue.BatchSize, cfg.Queue.BatchFlush, comp.ProcessBatch)
}

// ProvidePool creates the worker pool. Batch-tier tasks route through the
// coalescer; every other tier computes immediately.
func ProvidePool(
	cfg *config.Config,
	q *queue.Queue,
	comp *usecase.Computer,
	coalescer *queue.Coalescer,
	m repository.Metrics,
	log *logger.Logger,
) *queue.Pool {
	handler := func(ctx context.Context, task *models.QueueTask) error {
		if task.Tier == models.TierBatch {
			coalescer.Add(ctx, task)
			return nil
		}
		return comp.Process(ctx, task)
	}

	return queue.NewPool(queue.PoolConfig{
		Workers:    cfg.Queue.Workers,
		RetryMax:   cfg.Queue.RetryMax,
		BackoffMin: cfg.Queue.BackoffMin,
		BackoffMax: cfg.Queue.BackoffMax,
	}, q, handler, m, log)
}

// ProvideScheduler creates the tiered refresh scheduler.
func ProvideScheduler(
	cfg *config.Config,
	market domsvc.MarketDataProvider,
	stream domsvc.WhaleStream,
	q *queue.Queue,
	budget *ratelimit.Budget,
	c cache.Service,
	m repository.Metrics,
	log *logger.Logger,
) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		HighTo:         cfg.Universe.HighTo,
		MediumTo:       cfg.Universe.MediumTo,
		LowTo:          cfg.Universe.LowTo,
		PageSize:       cfg.Universe.PageSize,
		HighInterval:   cfg.Scheduler.HighInterval,
		MediumInterval: cfg.Scheduler.MediumInterval,
		LowInterval:    cfg.Scheduler.LowInterval,
		BatchInterval:  cfg.Scheduler.BatchInterval,
		PageDelay:      cfg.Scheduler.PageDelay,
		MediumDelay:    cfg.Scheduler.MediumDelay,
		LowDelay:       cfg.Scheduler.LowDelay,
		BatchDelay:     cfg.Scheduler.BatchDelay,
		SnapshotTTL:    cfg.Cache.SnapshotTTL,
	}, market, stream, q, budget, c, m, log)
}

// ProvideSignalsHandler creates the HTTP read surface.
func ProvideSignalsHandler(
	store repository.SignalStore,
	c cache.Service,
	q *queue.Queue,
	budget *ratelimit.Budget,
	log *logger.Logger,
) *api.SignalsHandler {
	return api.NewSignalsHandler(store, c, q, budget, log)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	q *queue.Queue,
	pool *queue.Pool,
	coalescer *queue.Coalescer,
	sched *scheduler.Scheduler,
	handler *api.SignalsHandler,
	store repository.SignalStore,
	alerts repository.AlertPublisher,
	c cache.Service,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, q, pool, coalescer, sched, handler, store, alerts, c, chClient)
}
