package focus

import (
	"fmt"
	"math"

	"github.com/banshee-data/focus.report/internal/config"
)

// Weights are the per-signal coefficients of the composite focus score. A
// Weights value is immutable once handed to a Scorer.
type Weights struct {
	GazeStability       float64 `json:"gaze_stability"`
	ScreenEngagement    float64 `json:"screen_engagement"`
	BlinkPattern        float64 `json:"blink_pattern"`
	SaccadeQuality      float64 `json:"saccade_quality"`
	TemporalConsistency float64 `json:"temporal_consistency"`
}

// DefaultWeights returns 0.25/0.20/0.15/0.20/0.20.
func DefaultWeights() Weights {
	return WeightsFromTuning(config.EmptyTuningConfig())
}

// WeightsFromTuning builds Weights from a loaded TuningConfig.
func WeightsFromTuning(cfg *config.TuningConfig) Weights {
	return Weights{
		GazeStability:       cfg.GetWeightGazeStability(),
		ScreenEngagement:    cfg.GetWeightScreenEngagement(),
		BlinkPattern:        cfg.GetWeightBlinkPattern(),
		SaccadeQuality:      cfg.GetWeightSaccadeQuality(),
		TemporalConsistency: cfg.GetWeightTemporal(),
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.GazeStability + w.ScreenEngagement + w.BlinkPattern + w.SaccadeQuality + w.TemporalConsistency
}

// Validate checks that all weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"gaze_stability", w.GazeStability},
		{"screen_engagement", w.ScreenEngagement},
		{"blink_pattern", w.BlinkPattern},
		{"saccade_quality", w.SaccadeQuality},
		{"temporal_consistency", w.TemporalConsistency},
	}
	for _, n := range named {
		if n.v < 0 || math.IsNaN(n.v) {
			return fmt.Errorf("weight %s must be non-negative, got %f", n.name, n.v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %f", w.Sum())
	}
	return nil
}

// combine returns the weighted sum of sub-scores.
func (w Weights) combine(s SubScores) float64 {
	return w.GazeStability*s.GazeStability +
		w.ScreenEngagement*s.ScreenEngagement +
		w.BlinkPattern*s.BlinkPattern +
		w.SaccadeQuality*s.SaccadeQuality +
		w.TemporalConsistency*s.TemporalConsistency
}
