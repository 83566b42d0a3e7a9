package ratelimit

import (
	"errors"
	"testing"
	"time"

	domsvc "CoinPulse/internal/domain/service"
)

func TestReserveUntilExhaustion(t *testing.T) {
	b := NewBudget()
	b.Register("market", 3, 0)

	for i := 0; i < 3; i++ {
		if err := b.Reserve("market"); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}

	// The call immediately following exhaustion is rejected.
	if err := b.Reserve("market"); !errors.Is(err, domsvc.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if got := b.RemainingToday("market"); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
}

func TestDailyCalendarReset(t *testing.T) {
	now := time.Date(2025, 6, 30, 23, 50, 0, 0, time.UTC)
	b := NewBudget(WithClock(func() time.Time { return now }))
	b.Register("market", 1, 0)

	if err := b.Reserve("market"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := b.Reserve("market"); !errors.Is(err, domsvc.ErrQuotaExceeded) {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	// Crossing midnight resets the daily window.
	now = now.Add(time.Hour)
	if err := b.Reserve("market"); err != nil {
		t.Fatalf("reserve after reset: %v", err)
	}
}

func TestMonthlyLimitIndependentOfDaily(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	b := NewBudget(WithClock(func() time.Time { return now }))
	b.Register("market", 10, 2)

	_ = b.Reserve("market")
	_ = b.Reserve("market")
	if err := b.Reserve("market"); !errors.Is(err, domsvc.ErrQuotaExceeded) {
		t.Fatalf("expected monthly exhaustion, got %v", err)
	}

	// New month clears the monthly window too.
	now = now.Add(24 * time.Hour)
	if err := b.Reserve("market"); err != nil {
		t.Fatalf("reserve in new month: %v", err)
	}
}

func TestNearLimitIsSoft(t *testing.T) {
	b := NewBudget()
	b.Register("market", 10, 0)

	for i := 0; i < 9; i++ {
		if err := b.Reserve("market"); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}
	if !b.NearLimit("market") {
		t.Fatalf("expected near-limit at 90%% consumed")
	}
	// Soft warning does not block the remaining call.
	if err := b.Reserve("market"); err != nil {
		t.Fatalf("reserve at warn level: %v", err)
	}
	if !b.Exhausted("market") {
		t.Fatalf("expected exhausted after final reserve")
	}
}

func TestUnregisteredSourceUnlimited(t *testing.T) {
	b := NewBudget()
	for i := 0; i < 100; i++ {
		if err := b.Reserve("adhoc"); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
}
