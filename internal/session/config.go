package session

import (
	"time"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/config"
	"github.com/banshee-data/focus.report/internal/focus"
	"github.com/banshee-data/focus.report/internal/gaze"
)

// Config gathers the per-component configuration of a Pipeline.
type Config struct {
	Smoother gaze.SmootherConfig
	Fixation gaze.FixationConfig
	Saccade  gaze.SaccadeConfig
	Blink    gaze.BlinkConfig
	Weights  focus.Weights
	Screen   calibration.ScreenSize

	// ScoreInterval is the sample-time spacing of live scores. Zero disables
	// live scoring.
	ScoreInterval time.Duration
}

// ConfigFromTuning builds a pipeline Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Smoother: gaze.SmootherConfigFromTuning(cfg),
		Fixation: gaze.FixationConfigFromTuning(cfg),
		Saccade:  gaze.SaccadeConfigFromTuning(cfg),
		Blink:    gaze.BlinkConfigFromTuning(cfg),
		Weights:  focus.WeightsFromTuning(cfg),
		Screen: calibration.ScreenSize{
			Width:  cfg.GetScreenWidth(),
			Height: cfg.GetScreenHeight(),
		},
		ScoreInterval: cfg.GetScoreInterval(),
	}
}

// DefaultConfig returns the built-in pipeline defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}
