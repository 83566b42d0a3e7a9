package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2025-03-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2025, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 3, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(120); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := ClampScore(-3); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := ClampScore(42.5); got != 42.5 {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestDayMonthKeys(t *testing.T) {
	at := time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)
	if DayKey(at) != "2025-03-31" {
		t.Fatalf("unexpected day key %s", DayKey(at))
	}
	if MonthKey(at) != "2025-03" {
		t.Fatalf("unexpected month key %s", MonthKey(at))
	}
}
