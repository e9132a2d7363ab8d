package gaze

import "github.com/banshee-data/focus.report/internal/timeutil"

// MinRateElapsed is the floor applied to the elapsed time when computing the
// blink rate, which keeps the first seconds of a session from reporting
// inflated rates.
const MinRateElapsed = 10.0 // seconds

// BlinkDetector turns per-eye closure intensities into validated blink events
// and keeps a rolling blinks-per-minute estimate.
type BlinkDetector struct {
	threshold   float64
	minDuration float64
	maxDuration float64
	doubleGap   float64
	window      float64

	lastTime  float64
	firstTime float64
	hasTime   bool

	blinking  bool
	onsetTime float64

	lastBlinkEnd float64
	hasLastBlink bool

	// Onset times of valid blinks inside the rolling window, oldest first.
	recent []float64
	events []BlinkEvent
}

// NewBlinkDetector creates a blink detector with the given configuration.
func NewBlinkDetector(cfg BlinkConfig) *BlinkDetector {
	return &BlinkDetector{
		threshold:   cfg.Threshold,
		minDuration: timeutil.Seconds(cfg.MinBlinkDuration),
		maxDuration: timeutil.Seconds(cfg.MaxBlinkDuration),
		doubleGap:   timeutil.Seconds(cfg.DoubleBlinkInterval),
		window:      timeutil.Seconds(cfg.RateWindow),
	}
}

// Process feeds one pair of closure intensities. A validated blink is returned
// with ok set on the sample where the eyes reopen. Samples that do not advance
// time are ignored.
func (d *BlinkDetector) Process(leftClosure, rightClosure, timestamp float64) (ev BlinkEvent, ok bool) {
	if d.hasTime && timestamp <= d.lastTime {
		return BlinkEvent{}, false
	}
	if !d.hasTime {
		d.firstTime = timestamp
		d.hasTime = true
	}
	d.lastTime = timestamp

	closed := leftClosure > d.threshold && rightClosure > d.threshold
	opened := leftClosure < d.threshold || rightClosure < d.threshold

	if !d.blinking {
		if closed {
			d.blinking = true
			d.onsetTime = timestamp
		}
		return BlinkEvent{}, false
	}
	if !opened {
		return BlinkEvent{}, false
	}

	d.blinking = false
	duration := timestamp - d.onsetTime
	if duration < d.minDuration || duration > d.maxDuration {
		return BlinkEvent{}, false
	}

	ev = BlinkEvent{Timestamp: d.onsetTime, Duration: duration}
	if d.hasLastBlink {
		gap := d.onsetTime - d.lastBlinkEnd
		ev.IsDoubleBlink = gap >= 0 && gap <= d.doubleGap
	}
	d.lastBlinkEnd = timestamp
	d.hasLastBlink = true

	d.events = append(d.events, ev)
	d.recent = append(d.recent, ev.Timestamp)
	d.prune(timestamp)
	return ev, true
}

// IsBlinking reports whether an onset has been seen without a matching offset.
func (d *BlinkDetector) IsBlinking() bool {
	return d.blinking
}

// Events returns a copy of the validated blink events.
func (d *BlinkDetector) Events() []BlinkEvent {
	out := make([]BlinkEvent, len(d.events))
	copy(out, d.events)
	return out
}

// BlinksPerMinute returns the rolling blink rate as of the latest sample.
func (d *BlinkDetector) BlinksPerMinute() float64 {
	if !d.hasTime {
		return 0
	}
	return d.RateAt(d.lastTime)
}

// RateAt returns the blink rate as of now: blinks in the window divided by the
// elapsed window time, floored at MinRateElapsed, scaled to a minute.
func (d *BlinkDetector) RateAt(now float64) float64 {
	if !d.hasTime {
		return 0
	}
	start := max(d.firstTime, now-d.window)
	count := 0
	for _, t := range d.recent {
		if t >= start && t <= now {
			count++
		}
	}
	elapsed := max(now-start, MinRateElapsed)
	return float64(count) / elapsed * 60
}

// Reset clears all state including the rolling window.
func (d *BlinkDetector) Reset() {
	d.lastTime = 0
	d.firstTime = 0
	d.hasTime = false
	d.blinking = false
	d.onsetTime = 0
	d.lastBlinkEnd = 0
	d.hasLastBlink = false
	d.recent = nil
	d.events = nil
}

// prune drops window entries older than now - window.
func (d *BlinkDetector) prune(now float64) {
	cutoff := now - d.window
	i := 0
	for i < len(d.recent) && d.recent[i] < cutoff {
		i++
	}
	d.recent = d.recent[i:]
}
