package gaze

import "math"

// SaccadeDetector finds rapid gaze displacements by thresholding angular
// velocity in degrees per second.
//
// Onset and offset share one threshold. Velocity hovering at the threshold can
// therefore split one movement into several short saccades.
type SaccadeDetector struct {
	config SaccadeConfig

	prev     Point
	prevTime float64
	hasPrev  bool

	inSaccade  bool
	onsetPoint Point
	onsetTime  float64

	saccades []Saccade
}

// NewSaccadeDetector creates a saccade detector with the given configuration.
func NewSaccadeDetector(cfg SaccadeConfig) *SaccadeDetector {
	return &SaccadeDetector{config: cfg}
}

// Process feeds one smoothed gaze sample. A completed saccade is returned with
// ok set on the sample where velocity drops back to or below the threshold.
func (d *SaccadeDetector) Process(point Point, timestamp float64) (sac Saccade, ok bool) {
	if !d.hasPrev {
		d.prev, d.prevTime, d.hasPrev = point, timestamp, true
		return Saccade{}, false
	}

	dt := timestamp - d.prevTime
	if dt <= 0 {
		return Saccade{}, false
	}
	velocity := d.config.Geometry.PointsToDegrees(d.prev.Distance(point)) / dt

	switch {
	case !d.inSaccade && velocity > d.config.VelocityThreshold:
		d.inSaccade = true
		d.onsetPoint = d.prev
		d.onsetTime = d.prevTime
	case d.inSaccade && velocity <= d.config.VelocityThreshold:
		d.inSaccade = false
		sac = d.buildSaccade(d.prev, d.prevTime)
		d.saccades = append(d.saccades, sac)
		ok = true
	}

	d.prev, d.prevTime = point, timestamp
	return sac, ok
}

// InSaccade reports whether a saccade is currently in progress.
func (d *SaccadeDetector) InSaccade() bool {
	return d.inSaccade
}

// Saccades returns a copy of the completed saccades.
func (d *SaccadeDetector) Saccades() []Saccade {
	out := make([]Saccade, len(d.saccades))
	copy(out, d.saccades)
	return out
}

// Reset clears detection state and the saccade list.
func (d *SaccadeDetector) Reset() {
	d.prev = Point{}
	d.prevTime = 0
	d.hasPrev = false
	d.inSaccade = false
	d.onsetPoint = Point{}
	d.onsetTime = 0
	d.saccades = nil
}

func (d *SaccadeDetector) buildSaccade(end Point, endTime float64) Saccade {
	amplitude := d.config.Geometry.PointsToDegrees(d.onsetPoint.Distance(end))
	// Screen y grows downward, so atan2 on raw deltas already reports
	// upward movement as a negative angle.
	direction := math.Atan2(end.Y-d.onsetPoint.Y, end.X-d.onsetPoint.X)
	return Saccade{
		StartPoint:       d.onsetPoint,
		EndPoint:         end,
		AmplitudeDegrees: amplitude,
		Duration:         endTime - d.onsetTime,
		DirectionRadians: direction,
		Type:             ClassifySaccade(amplitude),
		StartTime:        d.onsetTime,
	}
}
