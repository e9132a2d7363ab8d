package timeutil

import (
	"math"
	"testing"
	"time"
)

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Second)
	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), later)
	}
}

func TestRealClockMonotonic(t *testing.T) {
	var c Clock = RealClock{}
	t0 := c.Now()
	if c.Since(t0) < 0 {
		t.Error("Since() returned a negative duration")
	}
}

func TestSecondsDurationConversion(t *testing.T) {
	tests := []struct {
		seconds float64
		want    time.Duration
	}{
		{0, 0},
		{0.07, 70 * time.Millisecond},
		{1.5, 1500 * time.Millisecond},
		{-0.1, -100 * time.Millisecond},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := Duration(tt.seconds); got != tt.want {
			t.Errorf("Duration(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}

	if got := Seconds(250 * time.Millisecond); got != 0.25 {
		t.Errorf("Seconds(250ms) = %v, want 0.25", got)
	}
}
