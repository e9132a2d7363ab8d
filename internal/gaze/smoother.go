package gaze

import "github.com/banshee-data/focus.report/internal/timeutil"

// Smoother is an exponential moving average low-pass filter over 2D points.
// A gap longer than MaxGapDuration between consecutive samples restarts the
// filter so stale history never drags a fresh gaze position.
type Smoother struct {
	alpha  float64
	maxGap float64 // seconds

	last     Point
	lastTime float64
	hasState bool
	hasTime  bool
}

// NewSmoother creates a smoother. Alpha is clamped to [MinAlpha, MaxAlpha].
func NewSmoother(cfg SmootherConfig) *Smoother {
	alpha := cfg.Alpha
	if alpha < MinAlpha {
		alpha = MinAlpha
	}
	if alpha > MaxAlpha {
		alpha = MaxAlpha
	}
	return &Smoother{
		alpha:  alpha,
		maxGap: timeutil.Seconds(cfg.MaxGapDuration),
	}
}

// Alpha returns the effective (clamped) smoothing factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Smooth filters point observed at timestamp and returns the smoothed point.
// The first sample after construction, Reset, or a gap is returned unchanged.
func (s *Smoother) Smooth(point Point, timestamp float64) Point {
	if s.hasTime && timestamp-s.lastTime > s.maxGap {
		s.hasState = false
	}
	s.lastTime = timestamp
	s.hasTime = true

	if !s.hasState {
		s.last = point
		s.hasState = true
		return point
	}

	s.last = Point{
		X: s.alpha*point.X + (1-s.alpha)*s.last.X,
		Y: s.alpha*point.Y + (1-s.alpha)*s.last.Y,
	}
	return s.last
}

// Reset clears all filter state.
func (s *Smoother) Reset() {
	s.last = Point{}
	s.lastTime = 0
	s.hasState = false
	s.hasTime = false
}
