package gaze

import (
	"time"

	"github.com/banshee-data/focus.report/internal/config"
	"github.com/banshee-data/focus.report/internal/units"
)

// Smoothing factor bounds. Alpha outside this range is clamped at construction.
const (
	MinAlpha = 0.01
	MaxAlpha = 1.0
)

// SmootherConfig holds parameters for the EMA smoother.
type SmootherConfig struct {
	Alpha          float64       // weight of the newest sample, clamped to [0.01, 1]
	MaxGapDuration time.Duration // gap after which the filter restarts
}

// FixationConfig holds parameters for the I-VT fixation detector.
type FixationConfig struct {
	VelocityThreshold float64       // units/s; samples at or above are saccadic
	MinimumDuration   time.Duration // shortest cluster reported as a fixation
	MergeRadius       float64       // max center distance for merging with the previous fixation
}

// SaccadeConfig holds parameters for the saccade detector.
type SaccadeConfig struct {
	VelocityThreshold float64 // deg/s, used for both onset and offset
	Geometry          units.ViewingGeometry
}

// BlinkConfig holds parameters for the blink detector.
type BlinkConfig struct {
	Threshold           float64       // closure above which an eye counts as shut
	MinBlinkDuration    time.Duration // shorter candidates are noise
	MaxBlinkDuration    time.Duration // longer candidates are drowsiness or tracking loss
	DoubleBlinkInterval time.Duration // max gap from the previous blink's end
	RateWindow          time.Duration // rolling window for blinks per minute
}

// SmootherConfigFromTuning builds a SmootherConfig from a loaded TuningConfig.
func SmootherConfigFromTuning(cfg *config.TuningConfig) SmootherConfig {
	return SmootherConfig{
		Alpha:          cfg.GetAlpha(),
		MaxGapDuration: cfg.GetMaxGapDuration(),
	}
}

// FixationConfigFromTuning builds a FixationConfig from a loaded TuningConfig.
func FixationConfigFromTuning(cfg *config.TuningConfig) FixationConfig {
	return FixationConfig{
		VelocityThreshold: cfg.GetFixationVelocityThreshold(),
		MinimumDuration:   cfg.GetMinimumDuration(),
		MergeRadius:       cfg.GetMergeRadius(),
	}
}

// SaccadeConfigFromTuning builds a SaccadeConfig from a loaded TuningConfig.
func SaccadeConfigFromTuning(cfg *config.TuningConfig) SaccadeConfig {
	return SaccadeConfig{
		VelocityThreshold: cfg.GetSaccadeVelocityThreshold(),
		Geometry: units.ViewingGeometry{
			DevicePPI:             cfg.GetDevicePPI(),
			ViewingDistanceInches: cfg.GetViewingDistanceInches(),
		},
	}
}

// BlinkConfigFromTuning builds a BlinkConfig from a loaded TuningConfig.
func BlinkConfigFromTuning(cfg *config.TuningConfig) BlinkConfig {
	return BlinkConfig{
		Threshold:           cfg.GetBlinkThreshold(),
		MinBlinkDuration:    cfg.GetMinBlinkDuration(),
		MaxBlinkDuration:    cfg.GetMaxBlinkDuration(),
		DoubleBlinkInterval: cfg.GetDoubleBlinkInterval(),
		RateWindow:          cfg.GetBlinkRateWindow(),
	}
}

// DefaultSmootherConfig returns the built-in smoother defaults.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfigFromTuning(config.EmptyTuningConfig())
}

// DefaultFixationConfig returns the built-in fixation defaults
// (30 units/s, 70ms, 50 units).
func DefaultFixationConfig() FixationConfig {
	return FixationConfigFromTuning(config.EmptyTuningConfig())
}

// DefaultSaccadeConfig returns the built-in saccade defaults (100 deg/s).
func DefaultSaccadeConfig() SaccadeConfig {
	return SaccadeConfigFromTuning(config.EmptyTuningConfig())
}

// DefaultBlinkConfig returns the built-in blink defaults
// (0.5 threshold, 50-400ms, 500ms double-blink gap, 60s window).
func DefaultBlinkConfig() BlinkConfig {
	return BlinkConfigFromTuning(config.EmptyTuningConfig())
}
