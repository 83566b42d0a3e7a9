package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/pkg/logger"
)

// Handler processes one task. A nil return consumes the task; a transient
// error triggers a bounded in-worker retry; any other error drops it.
type Handler func(ctx context.Context, task *models.QueueTask) error

// PoolConfig configures the worker pool.
type PoolConfig struct {
	Workers    int
	RetryMax   int
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// Pool runs a fixed set of workers draining the queue. Retries happen
// inside the worker while the asset stays locked, so the at-most-one
// in-flight guarantee holds across attempts.
type Pool struct {
	cfg     PoolConfig
	queue   *Queue
	handler Handler
	metrics repository.Metrics
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewPool creates a worker pool over the queue.
func NewPool(cfg PoolConfig, q *Queue, handler Handler, metrics repository.Metrics, log *logger.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	return &Pool{cfg: cfg, queue: q, handler: handler, metrics: metrics, log: log}
}

// Start launches the workers. They run until ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		p.process(ctx, task)
		p.queue.Release(task.AssetID)
	}
}

func (p *Pool) process(ctx context.Context, task *models.QueueTask) {
	start := time.Now()
	tier := task.Tier.String()

	for {
		task.Attempts++
		err := p.handler(ctx, task)
		if err == nil {
			p.metrics.RecordLatency("task_process", time.Since(start).Seconds())
			return
		}

		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			p.metrics.RecordTaskDropped(tier, "canceled")
			return

		case errors.Is(err, domsvc.ErrQuotaExceeded):
			// No point retrying until the calendar reset.
			p.metrics.RecordTaskDropped(tier, "quota")
			p.log.Warn("task dropped on exhausted quota",
				logger.String("asset", task.AssetID),
				logger.String("tier", tier))
			return

		case domsvc.IsTransient(err) && task.Attempts < p.cfg.RetryMax:
			p.metrics.RecordTaskRetried(tier)
			p.log.Debug("task retry",
				logger.String("asset", task.AssetID),
				logger.Int("attempt", task.Attempts),
				logger.Error(err))
			select {
			case <-time.After(p.backoff(task.Attempts)):
			case <-ctx.Done():
				return
			}

		default:
			p.metrics.RecordTaskDropped(tier, "failed")
			p.metrics.RecordError("task_failed")
			p.log.Error("task dropped",
				logger.String("asset", task.AssetID),
				logger.String("tier", tier),
				logger.Int("attempts", task.Attempts),
				logger.Error(err))
			return
		}
	}
}

// backoff returns the exponential delay for the given attempt, capped.
func (p *Pool) backoff(attempt int) time.Duration {
	d := p.cfg.BackoffMin
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.cfg.BackoffMax {
			return p.cfg.BackoffMax
		}
	}
	if d > p.cfg.BackoffMax {
		d = p.cfg.BackoffMax
	}
	return d
}
