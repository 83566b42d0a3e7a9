package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/handler/api"
	"CoinPulse/internal/queue"
	"CoinPulse/internal/scheduler"
	"CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
)

// App owns the application lifecycle: the scheduler loops, the worker
// pool, the batch coalescer and the HTTP read surface, started together
// and shut down in reverse order.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	queue     *queue.Queue
	pool      *queue.Pool
	coalescer *queue.Coalescer
	sched     *scheduler.Scheduler
	handler   *api.SignalsHandler

	store    repository.SignalStore
	alerts   repository.AlertPublisher
	cacheSvc cache.Service
	chClient *pkgch.Client

	httpServer *xhttp.Server
}

// New assembles the application from its wired components.
func New(
	cfg *config.Config,
	log *logger.Logger,
	q *queue.Queue,
	pool *queue.Pool,
	coalescer *queue.Coalescer,
	sched *scheduler.Scheduler,
	handler *api.SignalsHandler,
	store repository.SignalStore,
	alerts repository.AlertPublisher,
	cacheSvc cache.Service,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		queue:     q,
		pool:      pool,
		coalescer: coalescer,
		sched:     sched,
		handler:   handler,
		store:     store,
		alerts:    alerts,
		cacheSvc:  cacheSvc,
		chClient:  chClient,
	}
}

// Run starts everything and blocks until an interrupt, then shuts down
// gracefully.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.pool.Start(ctx)
	a.log.Info("worker pool started", logger.Int("workers", a.cfg.Queue.Workers))

	go a.coalescer.Run(ctx)

	a.sched.Start(ctx)
	a.log.Info("scheduler started",
		logger.Int("high_to", a.cfg.Universe.HighTo),
		logger.Int("medium_to", a.cfg.Universe.MediumTo),
		logger.Int("low_to", a.cfg.Universe.LowTo),
		logger.Bool("whale_feed", a.cfg.WhaleFeed.Enabled))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start failed", logger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

func (a *App) shutdown(ctx context.Context) error {
	// Producers first so no new work arrives, then the workers drain.
	a.sched.Wait()
	a.pool.Wait()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Warn("http shutdown error", logger.Error(err))
	}

	if a.alerts != nil {
		if err := a.alerts.Close(); err != nil {
			a.log.Warn("alert publisher close error", logger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("signal store close error", logger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", logger.Error(err))
		}
	}
	if err := a.cacheSvc.Close(); err != nil {
		a.log.Warn("cache close error", logger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
