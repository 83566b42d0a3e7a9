package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
)

// nopMetrics satisfies the metrics interface for tests.
type nopMetrics struct {
	mu      sync.Mutex
	dropped map[string]int
}

func newNopMetrics() *nopMetrics {
	return &nopMetrics{dropped: make(map[string]int)}
}

func (m *nopMetrics) RecordSignalComputed(tier, regime string) {}
func (m *nopMetrics) RecordTaskDropped(tier, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[reason]++
}
func (m *nopMetrics) RecordTaskRetried(tier string)                        {}
func (m *nopMetrics) RecordQueueDepth(tier string, depth int)              {}
func (m *nopMetrics) RecordBudgetRemaining(source string, today, mon int)  {}
func (m *nopMetrics) RecordAlertEmitted(reason string)                     {}
func (m *nopMetrics) RecordError(kind string)                              {}
func (m *nopMetrics) RecordLatency(op string, seconds float64)             {}

func (m *nopMetrics) droppedFor(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped[reason]
}

func task(id string, tier models.Tier) *models.QueueTask {
	return &models.QueueTask{AssetID: id, Symbol: id, Tier: tier}
}

func TestDequeueStrictPriority(t *testing.T) {
	q := New(100, newNopMetrics())

	// Enqueue out of priority order; a critical task arriving last still
	// comes out first.
	mustEnqueue(t, q, task("low-1", models.TierLow))
	mustEnqueue(t, q, task("med-1", models.TierMedium))
	mustEnqueue(t, q, task("crit-1", models.TierCritical))
	mustEnqueue(t, q, task("high-1", models.TierHigh))

	want := []string{"crit-1", "high-1", "med-1", "low-1"}
	for _, id := range want {
		got := mustDequeue(t, q)
		if got.AssetID != id {
			t.Fatalf("dequeued %s, want %s", got.AssetID, id)
		}
		q.Release(got.AssetID)
	}
}

func TestDequeueFIFOWithinTier(t *testing.T) {
	q := New(100, newNopMetrics())
	for _, id := range []string{"a", "b", "c"} {
		mustEnqueue(t, q, task(id, models.TierHigh))
	}
	for _, id := range []string{"a", "b", "c"} {
		got := mustDequeue(t, q)
		if got.AssetID != id {
			t.Fatalf("dequeued %s, want %s", got.AssetID, id)
		}
		q.Release(got.AssetID)
	}
}

func TestAtMostOneInFlightPerAsset(t *testing.T) {
	q := New(100, newNopMetrics())

	mustEnqueue(t, q, task("btc", models.TierCritical))
	first := mustDequeue(t, q)
	if first.AssetID != "btc" {
		t.Fatalf("dequeued %s", first.AssetID)
	}

	// While btc is in flight, a new btc task is queued but not dispatchable.
	mustEnqueue(t, q, task("btc", models.TierCritical))
	mustEnqueue(t, q, task("eth", models.TierLow))

	// The lower-priority eth task is dispatched instead; btc is skipped in
	// place, not dropped.
	got := mustDequeue(t, q)
	if got.AssetID != "eth" {
		t.Fatalf("dequeued %s, want eth", got.AssetID)
	}

	q.Release("btc")
	got = mustDequeue(t, q)
	if got.AssetID != "btc" {
		t.Fatalf("after release dequeued %s, want btc", got.AssetID)
	}
}

func TestEnqueueDedupe(t *testing.T) {
	m := newNopMetrics()
	q := New(100, m)

	mustEnqueue(t, q, task("btc", models.TierHigh))
	mustEnqueue(t, q, task("btc", models.TierHigh))
	if q.Depth(models.TierHigh) != 1 {
		t.Fatalf("depth = %d, want 1", q.Depth(models.TierHigh))
	}
	if m.droppedFor("duplicate") != 1 {
		t.Fatalf("duplicate drops = %d, want 1", m.droppedFor("duplicate"))
	}
}

// A more urgent enqueue upgrades an already queued task instead of
// dropping it, so a whale promotion still reaches the critical tier when
// the asset is sitting in a delayed low entry.
func TestEnqueueUpgradesQueuedTaskToUrgentTier(t *testing.T) {
	now := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
	m := newNopMetrics()
	q := New(100, m, WithClock(func() time.Time { return now }))

	delayed := task("btc", models.TierLow)
	delayed.ReadyAt = now.Add(time.Hour)
	mustEnqueue(t, q, delayed)

	mustEnqueue(t, q, task("btc", models.TierCritical))

	if q.Depth(models.TierCritical) != 1 || q.Depth(models.TierLow) != 0 {
		t.Fatalf("depths critical=%d low=%d, want 1/0",
			q.Depth(models.TierCritical), q.Depth(models.TierLow))
	}
	if m.droppedFor("duplicate") != 0 {
		t.Fatalf("duplicate drops = %d, want 0", m.droppedFor("duplicate"))
	}

	// The delay is cleared on upgrade: dispatchable right now.
	got := mustDequeue(t, q)
	if got.AssetID != "btc" || got.Tier != models.TierCritical {
		t.Fatalf("dequeued %s tier %s, want btc critical", got.AssetID, got.Tier)
	}
}

// A duplicate at the same or a less urgent tier is still dropped.
func TestEnqueueIgnoresLessUrgentDuplicate(t *testing.T) {
	m := newNopMetrics()
	q := New(100, m)

	mustEnqueue(t, q, task("btc", models.TierHigh))
	mustEnqueue(t, q, task("btc", models.TierLow))

	if q.Depth(models.TierHigh) != 1 || q.Depth(models.TierLow) != 0 {
		t.Fatalf("depths high=%d low=%d, want 1/0",
			q.Depth(models.TierHigh), q.Depth(models.TierLow))
	}
	if m.droppedFor("duplicate") != 1 {
		t.Fatalf("duplicate drops = %d, want 1", m.droppedFor("duplicate"))
	}
}

func TestEnqueueLoadShedsWhenFull(t *testing.T) {
	m := newNopMetrics()
	q := New(2, m)

	mustEnqueue(t, q, task("a", models.TierBatch))
	mustEnqueue(t, q, task("b", models.TierBatch))
	if err := q.Enqueue(task("c", models.TierBatch)); err != ErrQueueFull {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if m.droppedFor("queue_full") != 1 {
		t.Fatalf("queue_full drops = %d", m.droppedFor("queue_full"))
	}

	// Other tiers have their own ceiling.
	mustEnqueue(t, q, task("d", models.TierCritical))
}

func TestDelayedTaskNotDispatchedEarly(t *testing.T) {
	now := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	q := New(100, newNopMetrics(), WithClock(clock))

	delayed := task("later", models.TierLow)
	delayed.ReadyAt = now.Add(time.Minute)
	mustEnqueue(t, q, delayed)
	mustEnqueue(t, q, task("now", models.TierLow))

	got := mustDequeue(t, q)
	if got.AssetID != "now" {
		t.Fatalf("dequeued %s, want now", got.AssetID)
	}
	q.Release("now")

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	got = mustDequeue(t, q)
	if got.AssetID != "later" {
		t.Fatalf("dequeued %s, want later", got.AssetID)
	}
}

func TestDequeueHonorsContext(t *testing.T) {
	q := New(100, newNopMetrics())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatal("expected context error on empty queue")
	}
}

func mustEnqueue(t *testing.T, q *Queue, task *models.QueueTask) {
	t.Helper()
	if err := q.Enqueue(task); err != nil {
		t.Fatalf("enqueue %s: %v", task.AssetID, err)
	}
}

func mustDequeue(t *testing.T, q *Queue) *models.QueueTask {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	task, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	return task
}
