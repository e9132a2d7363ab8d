package gaze

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blink closes both eyes at onset and reopens them after dur seconds.
func blink(d *BlinkDetector, onset, dur float64) (BlinkEvent, bool) {
	d.Process(0.9, 0.9, onset)
	return d.Process(0.1, 0.1, onset+dur)
}

func TestBlinkValid(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	d.Process(0.1, 0.1, 0)
	d.Process(0.2, 0.1, 0.033)
	_, ok := d.Process(0.9, 0.8, 0.1)
	assert.False(t, ok)
	assert.True(t, d.IsBlinking())
	d.Process(0.95, 0.9, 0.133)
	d.Process(0.9, 0.95, 0.166)

	ev, ok := d.Process(0.1, 0.2, 0.25)
	require.True(t, ok)
	assert.InDelta(t, 0.1, ev.Timestamp, 1e-12)
	assert.InDelta(t, 0.15, ev.Duration, 1e-12)
	assert.InDelta(t, 0.25, ev.End(), 1e-12)
	assert.False(t, ev.IsDoubleBlink)
	assert.False(t, d.IsBlinking())
	assert.Len(t, d.Events(), 1)
}

func TestBlinkDurationBounds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		dur  float64
		want bool
	}{
		{name: "noise", dur: 0.03, want: false},
		{name: "minimum", dur: 0.05, want: true},
		{name: "typical", dur: 0.2, want: true},
		{name: "maximum", dur: 0.4, want: true},
		{name: "drowsy", dur: 0.5, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewBlinkDetector(DefaultBlinkConfig())
			// Onset 0.5 keeps onset+dur-onset from rounding below the bounds.
			_, ok := blink(d, 0.5, tt.dur)
			assert.Equal(t, tt.want, ok)
			if !tt.want {
				assert.Empty(t, d.Events())
			}
		})
	}
}

func TestBlinkRequiresBothEyes(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	d.Process(0.9, 0.1, 0)
	d.Process(0.9, 0.2, 0.1)
	_, ok := d.Process(0.1, 0.1, 0.2)
	assert.False(t, ok)
	assert.False(t, d.IsBlinking())

	// Once blinking, a single eye reopening ends the blink.
	d.Process(0.9, 0.9, 1.0)
	ev, ok := d.Process(0.9, 0.1, 1.2)
	require.True(t, ok)
	assert.InDelta(t, 0.2, ev.Duration, 1e-9)
}

func TestBlinkDoubleBlink(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	blink(d, 0, 0.15)   // ends 0.15
	blink(d, 0.4, 0.15) // gap 0.25: double
	blink(d, 2.0, 0.15) // gap 1.45: single
	blink(d, 2.6, 0.15) // gap 0.45: double

	want := []BlinkEvent{
		{Timestamp: 0, Duration: 0.15},
		{Timestamp: 0.4, Duration: 0.15, IsDoubleBlink: true},
		{Timestamp: 2.0, Duration: 0.15},
		{Timestamp: 2.6, Duration: 0.15, IsDoubleBlink: true},
	}
	if diff := cmp.Diff(want, d.Events(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("blink events mismatch (-want +got):\n%s", diff)
	}
}

func TestBlinkDiscardedCandidateDoesNotAnchorDoubleBlink(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	blink(d, 0, 0.15)            // valid, ends 0.15
	_, ok := blink(d, 0.3, 0.45) // too long, ends 0.75
	require.False(t, ok)

	ev, ok := blink(d, 0.9, 0.1)
	require.True(t, ok)
	assert.False(t, ev.IsDoubleBlink, "gap is measured from the last valid blink")
}

func TestBlinkRateFloor(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	d.Process(0.1, 0.1, 0)
	blink(d, 1, 0.1)
	blink(d, 3, 0.1)

	// Two blinks in 3.1s would be ~39/min; the 10s floor gives 12/min.
	assert.InDelta(t, 12.0, d.BlinksPerMinute(), 1e-9)
}

func TestBlinkRateRollingWindow(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	d.Process(0.1, 0.1, 0)
	// 18 blinks spread over the first 72 seconds.
	for i := 0; i < 18; i++ {
		blink(d, 1+float64(i)*4, 0.2)
	}
	d.Process(0.1, 0.1, 80)

	// Window covers [20, 80]: onsets 21, 25, ..., 69 are inside.
	assert.InDelta(t, 13.0, d.BlinksPerMinute(), 1e-9)

	// Long after the last blink the window is empty.
	assert.Zero(t, d.RateAt(200))
}

func TestBlinkOutOfOrderDropped(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	d.Process(0.9, 0.9, 1.0)
	_, ok := d.Process(0.1, 0.1, 0.9)
	assert.False(t, ok)
	assert.True(t, d.IsBlinking(), "stale sample must not end the blink")

	ev, ok := d.Process(0.1, 0.1, 1.1)
	require.True(t, ok)
	assert.InDelta(t, 0.1, ev.Duration, 1e-9)
}

func TestBlinkReset(t *testing.T) {
	t.Parallel()
	d := NewBlinkDetector(DefaultBlinkConfig())

	blink(d, 0, 0.1)
	blink(d, 0.3, 0.1)
	d.Process(0.9, 0.9, 0.6)
	require.Len(t, d.Events(), 2)

	d.Reset()
	assert.Empty(t, d.Events())
	assert.False(t, d.IsBlinking())
	assert.Zero(t, d.BlinksPerMinute())

	// Earlier timestamps are accepted after a reset and no double blink is
	// inferred from the cleared history.
	ev, ok := blink(d, 0.2, 0.1)
	require.True(t, ok)
	assert.False(t, ev.IsDoubleBlink)
}
