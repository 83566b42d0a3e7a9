package queue

import (
	"context"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
)

// FlushFunc receives one coalesced group of batch-tier tasks. One group
// maps to one upstream call, which is the whole point of the batch tier.
type FlushFunc func(ctx context.Context, group []*models.QueueTask)

// Coalescer buffers batch-tier tasks into fixed-size groups. A group is
// flushed when it fills or when the flush interval elapses with a partial
// group outstanding, whichever comes first.
type Coalescer struct {
	size     int
	interval time.Duration
	flush    FlushFunc

	mu  sync.Mutex
	buf []*models.QueueTask
}

// NewCoalescer creates a coalescer with the given group size and flush
// interval.
func NewCoalescer(size int, interval time.Duration, flush FlushFunc) *Coalescer {
	if size <= 0 {
		size = 25
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Coalescer{size: size, interval: interval, flush: flush}
}

// Add buffers a task, flushing synchronously when the group fills.
func (c *Coalescer) Add(ctx context.Context, task *models.QueueTask) {
	var full []*models.QueueTask

	c.mu.Lock()
	c.buf = append(c.buf, task)
	if len(c.buf) >= c.size {
		full = c.buf
		c.buf = nil
	}
	c.mu.Unlock()

	if full != nil {
		c.flush(ctx, full)
	}
}

// Run flushes partial groups on the interval until ctx is done, then
// drains whatever remains.
func (c *Coalescer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain(context.Background())
			return
		case <-ticker.C:
			c.drain(ctx)
		}
	}
}

func (c *Coalescer) drain(ctx context.Context) {
	c.mu.Lock()
	partial := c.buf
	c.buf = nil
	c.mu.Unlock()

	if len(partial) > 0 {
		c.flush(ctx, partial)
	}
}
