package calibration

import "github.com/banshee-data/focus.report/internal/config"

// Mode selects the correction model.
type Mode string

const (
	// ModeAuto fits a polynomial with PolynomialMinTargets or more centroids
	// and an affine model otherwise.
	ModeAuto       Mode = "auto"
	ModeAffine     Mode = "affine"
	ModePolynomial Mode = "polynomial"
)

// Config holds calibration engine parameters.
type Config struct {
	SamplesPerPoint int
	Layout          Layout
	Mode            Mode
	Screen          ScreenSize
}

// ConfigFromTuning builds a calibration Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		SamplesPerPoint: cfg.GetSamplesPerPoint(),
		Layout:          Layout(cfg.GetCalibrationLayout()),
		Mode:            Mode(cfg.GetCalibrationMode()),
		Screen: ScreenSize{
			Width:  cfg.GetScreenWidth(),
			Height: cfg.GetScreenHeight(),
		},
	}
}

// DefaultConfig returns the built-in defaults: 30 samples per point, nine
// targets, automatic model selection, 1024x768 screen.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}
