package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2026, time.March, 29, 0, 30, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockSetWallClock(t *testing.T) {
	clock := NewClock(time.Time{})

	if !clock.SetWallClock("2026-07-01", "09:00", "Europe/London") {
		t.Fatalf("expected London wall clock to resolve")
	}
	want := time.Date(2026, time.July, 1, 8, 0, 0, 0, time.UTC)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if clock.SetWallClock("2026-07-01", "09:00", "Mars/Base") {
		t.Fatalf("expected unsupported zone to be rejected")
	}
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("expected clock to stay at %v, got %v", want, got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatalf("expected a fallback time source for a nil clock")
	}
}
