package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
)

// ErrQueueFull is returned when a tier is at its depth ceiling. Enqueue
// load-sheds instead of blocking the producer.
var ErrQueueFull = errors.New("queue tier full")

// pollInterval is how often a blocked Dequeue rescans the tiers. Short
// enough that a newly ready task is picked up promptly, long enough not
// to spin.
const pollInterval = 20 * time.Millisecond

// Queue is a strict-priority task queue. Dequeue always drains the most
// urgent non-empty tier first; within a tier order is FIFO. At most one
// task per asset is in flight at a time: a dequeued asset is locked until
// the worker calls Release, and other tasks for it are skipped in place,
// not dropped.
type Queue struct {
	mu       sync.Mutex
	tiers    [models.NumTiers][]*models.QueueTask
	pending  map[string]models.Tier // queued asset id -> its tier, for dedupe and upgrades
	inflight map[string]bool        // asset ids dequeued but not yet released
	maxDepth int
	metrics  repository.Metrics
	now      func() time.Time
}

// Option configures Queue.
type Option func(*Queue)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates a queue with the given per-tier depth ceiling.
func New(maxDepth int, metrics repository.Metrics, opts ...Option) *Queue {
	if maxDepth <= 0 {
		maxDepth = 5000
	}
	q := &Queue{
		pending:  make(map[string]models.Tier),
		inflight: make(map[string]bool),
		maxDepth: maxDepth,
		metrics:  metrics,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a task to its tier. A task for an asset already queued at
// the same or a more urgent tier is dropped as a duplicate; one queued at
// a less urgent tier is upgraded in place, so a whale promotion reaches
// the critical tier even when the asset sits in a delayed low entry. A
// full tier load-sheds with ErrQueueFull. Tasks for in-flight assets are
// accepted and sit queued until the asset is released.
func (q *Queue) Enqueue(task *models.QueueTask) error {
	if task == nil || !task.Tier.Valid() {
		return errors.New("invalid task")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if queuedTier, ok := q.pending[task.AssetID]; ok {
		if task.Tier >= queuedTier {
			q.metrics.RecordTaskDropped(task.Tier.String(), "duplicate")
			return nil
		}
		if len(q.tiers[task.Tier]) >= q.maxDepth {
			q.metrics.RecordTaskDropped(task.Tier.String(), "queue_full")
			return ErrQueueFull
		}
		q.upgradeLocked(task.AssetID, queuedTier, task.Tier)
		return nil
	}
	if len(q.tiers[task.Tier]) >= q.maxDepth {
		q.metrics.RecordTaskDropped(task.Tier.String(), "queue_full")
		return ErrQueueFull
	}

	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = q.now()
	}
	q.tiers[task.Tier] = append(q.tiers[task.Tier], task)
	q.pending[task.AssetID] = task.Tier
	q.metrics.RecordQueueDepth(task.Tier.String(), len(q.tiers[task.Tier]))
	return nil
}

// upgradeLocked moves a queued task to a more urgent tier and clears its
// delay so it becomes dispatchable immediately. Caller holds q.mu.
func (q *Queue) upgradeLocked(assetID string, from, to models.Tier) {
	for i, queued := range q.tiers[from] {
		if queued.AssetID != assetID {
			continue
		}
		q.tiers[from] = append(q.tiers[from][:i], q.tiers[from][i+1:]...)
		queued.Tier = to
		queued.ReadyAt = time.Time{}
		q.tiers[to] = append(q.tiers[to], queued)
		q.pending[assetID] = to
		q.metrics.RecordQueueDepth(from.String(), len(q.tiers[from]))
		q.metrics.RecordQueueDepth(to.String(), len(q.tiers[to]))
		return
	}
}

// Dequeue blocks until a dispatchable task is available or ctx is done.
// The returned task's asset is locked; the caller must Release it when
// the work finishes, whatever the outcome.
func (q *Queue) Dequeue(ctx context.Context) (*models.QueueTask, error) {
	for {
		if task := q.tryDequeue(); task != nil {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// tryDequeue scans tiers from most to least urgent and returns the first
// task that is ready and whose asset is not in flight. Skipped tasks keep
// their position.
func (q *Queue) tryDequeue() *models.QueueTask {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	for tier := range q.tiers {
		for i, task := range q.tiers[tier] {
			if !task.Ready(now) || q.inflight[task.AssetID] {
				continue
			}
			q.tiers[tier] = append(q.tiers[tier][:i], q.tiers[tier][i+1:]...)
			delete(q.pending, task.AssetID)
			q.inflight[task.AssetID] = true
			q.metrics.RecordQueueDepth(models.Tier(tier).String(), len(q.tiers[tier]))
			return task
		}
	}
	return nil
}

// Release unlocks the asset after its task finished or was dropped.
func (q *Queue) Release(assetID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, assetID)
}

// Depth returns the number of queued tasks in the tier.
func (q *Queue) Depth(tier models.Tier) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !tier.Valid() {
		return 0
	}
	return len(q.tiers[tier])
}

// Depths returns the queued count per tier, keyed by tier name.
func (q *Queue) Depths() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]int, models.NumTiers)
	for tier := range q.tiers {
		out[models.Tier(tier).String()] = len(q.tiers[tier])
	}
	return out
}

// InFlight returns the number of assets currently locked by workers.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}
