package gaze

import (
	"fmt"
	"math"
)

// Point is a 2D gaze position in screen points (origin top-left, y down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Sample is one gaze observation plus the per-eye closure intensities used
// for blink detection. Timestamps are in seconds.
type Sample struct {
	Point        Point   `json:"point"`
	Timestamp    float64 `json:"t"`
	LeftClosure  float64 `json:"left_closure"`  // 0 = open, 1 = closed
	RightClosure float64 `json:"right_closure"` // 0 = open, 1 = closed
}

// Fixation is a sustained low-velocity gaze cluster.
type Fixation struct {
	Center      Point   `json:"center"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	SampleCount int     `json:"sample_count"`
}

// Duration returns EndTime - StartTime in seconds.
func (f Fixation) Duration() float64 {
	return f.EndTime - f.StartTime
}

// SaccadeType is the amplitude band of a saccade.
type SaccadeType string

const (
	SaccadeMicro SaccadeType = "micro" // < 1 degree
	SaccadeSmall SaccadeType = "small" // 1-5 degrees
	SaccadeLarge SaccadeType = "large" // > 5 degrees
)

// Amplitude band edges in visual degrees.
const (
	MicroSaccadeMaxDegrees = 1.0
	SmallSaccadeMaxDegrees = 5.0
)

// ClassifySaccade returns the amplitude band for amplitudeDegrees.
func ClassifySaccade(amplitudeDegrees float64) SaccadeType {
	switch {
	case amplitudeDegrees < MicroSaccadeMaxDegrees:
		return SaccadeMicro
	case amplitudeDegrees <= SmallSaccadeMaxDegrees:
		return SaccadeSmall
	default:
		return SaccadeLarge
	}
}

// Saccade is a rapid gaze displacement between two fixations.
type Saccade struct {
	StartPoint       Point       `json:"start_point"`
	EndPoint         Point       `json:"end_point"`
	AmplitudeDegrees float64     `json:"amplitude_degrees"`
	Duration         float64     `json:"duration"`          // seconds
	DirectionRadians float64     `json:"direction_radians"` // screen space, upward is negative
	Type             SaccadeType `json:"type"`
	StartTime        float64     `json:"start_time"`
}

func (s Saccade) String() string {
	return fmt.Sprintf("%s saccade %.2f° over %.0fms at t=%.3f", s.Type, s.AmplitudeDegrees, s.Duration*1000, s.StartTime)
}

// BlinkEvent is a validated blink. Timestamp is the blink onset in seconds.
type BlinkEvent struct {
	Timestamp     float64 `json:"timestamp"`
	Duration      float64 `json:"duration"` // seconds
	IsDoubleBlink bool    `json:"is_double_blink"`
}

// End returns the time the eyes reopened.
func (b BlinkEvent) End() float64 {
	return b.Timestamp + b.Duration
}
