package ratelimit

import (
	"sync"
	"time"

	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/pkg/util"
)

// warnFraction is the consumed share past which a source is flagged as
// near its limit. A soft warning only; calls are still allowed.
const warnFraction = 0.9

type source struct {
	dailyLimit   int // 0 means unlimited
	monthlyLimit int
	day          string
	month        string
	today        int
	thisMonth    int
}

// rollover resets the counters on calendar boundaries.
func (s *source) rollover(now time.Time) {
	if dk := util.DayKey(now); dk != s.day {
		s.day = dk
		s.today = 0
	}
	if mk := util.MonthKey(now); mk != s.month {
		s.month = mk
		s.thisMonth = 0
	}
}

// Budget tracks per-source daily and monthly call budgets. Exhaustion is a
// hard stop until the calendar reset; the near-limit state is a soft warning
// that never blocks calls. All state sits behind one mutex so counters stay
// consistent under concurrent workers.
type Budget struct {
	mu      sync.Mutex
	sources map[string]*source
	now     func() time.Time
}

// Option configures Budget.
type Option func(*Budget)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Budget) { b.now = now }
}

// NewBudget creates an empty budget tracker.
func NewBudget(opts ...Option) *Budget {
	b := &Budget{
		sources: make(map[string]*source),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register declares limits for a source. Zero means unlimited for that window.
func (b *Budget) Register(name string, daily, monthly int) {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources[name] = &source{
		dailyLimit:   daily,
		monthlyLimit: monthly,
		day:          util.DayKey(now),
		month:        util.MonthKey(now),
	}
}

// Reserve records one call attempt against the source. It returns
// ErrQuotaExceeded when either window is exhausted, in which case no
// counter is consumed and the caller must not hit the network.
func (b *Budget) Reserve(name string) error {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sources[name]
	if !ok {
		// Unregistered sources are unlimited.
		return nil
	}
	s.rollover(now)

	if s.dailyLimit > 0 && s.today >= s.dailyLimit {
		return domsvc.ErrQuotaExceeded
	}
	if s.monthlyLimit > 0 && s.thisMonth >= s.monthlyLimit {
		return domsvc.ErrQuotaExceeded
	}

	s.today++
	s.thisMonth++
	return nil
}

// RemainingToday returns the unconsumed daily budget, or -1 for unlimited.
func (b *Budget) RemainingToday(name string) int {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sources[name]
	if !ok || s.dailyLimit <= 0 {
		return -1
	}
	s.rollover(now)
	return s.dailyLimit - s.today
}

// RemainingMonth returns the unconsumed monthly budget, or -1 for unlimited.
func (b *Budget) RemainingMonth(name string) int {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sources[name]
	if !ok || s.monthlyLimit <= 0 {
		return -1
	}
	s.rollover(now)
	return s.monthlyLimit - s.thisMonth
}

// Exhausted reports whether the source has no budget left in either window.
func (b *Budget) Exhausted(name string) bool {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sources[name]
	if !ok {
		return false
	}
	s.rollover(now)
	if s.dailyLimit > 0 && s.today >= s.dailyLimit {
		return true
	}
	if s.monthlyLimit > 0 && s.thisMonth >= s.monthlyLimit {
		return true
	}
	return false
}

// NearLimit reports whether either window is at or past the warn fraction.
func (b *Budget) NearLimit(name string) bool {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sources[name]
	if !ok {
		return false
	}
	s.rollover(now)
	if s.dailyLimit > 0 && float64(s.today) >= warnFraction*float64(s.dailyLimit) {
		return true
	}
	if s.monthlyLimit > 0 && float64(s.thisMonth) >= warnFraction*float64(s.monthlyLimit) {
		return true
	}
	return false
}
