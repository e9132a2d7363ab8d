// Package config loads the tuning parameters shared by the gaze pipeline,
// the calibration engine, and the focus scorer.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// All fields are optional; the Get* accessors fall back to the built-in
// defaults for anything the JSON omits, so partial files are safe.
type TuningConfig struct {
	// Smoother params
	Alpha          *float64 `json:"alpha,omitempty"`
	MaxGapDuration *string  `json:"max_gap_duration,omitempty"` // duration string like "100ms"

	// Fixation params
	FixationVelocityThreshold *float64 `json:"fixation_velocity_threshold,omitempty"` // units/s
	MinimumDuration           *string  `json:"minimum_duration,omitempty"`
	MergeRadius               *float64 `json:"merge_radius,omitempty"`

	// Saccade params
	SaccadeVelocityThreshold *float64 `json:"saccade_velocity_threshold,omitempty"` // deg/s
	DevicePPI                *float64 `json:"device_ppi,omitempty"`
	ViewingDistanceInches    *float64 `json:"viewing_distance_inches,omitempty"`

	// Blink params
	BlinkThreshold      *float64 `json:"blink_threshold,omitempty"`
	MinBlinkDuration    *string  `json:"min_blink_duration,omitempty"`
	MaxBlinkDuration    *string  `json:"max_blink_duration,omitempty"`
	DoubleBlinkInterval *string  `json:"double_blink_interval,omitempty"`
	BlinkRateWindow     *string  `json:"blink_rate_window,omitempty"`

	// Calibration params
	SamplesPerPoint   *int    `json:"samples_per_point,omitempty"`
	CalibrationLayout *int    `json:"calibration_layout,omitempty"` // 5 or 9 targets
	CalibrationMode   *string `json:"calibration_mode,omitempty"`   // auto, affine, polynomial

	// Screen geometry (points)
	ScreenWidth  *float64 `json:"screen_width,omitempty"`
	ScreenHeight *float64 `json:"screen_height,omitempty"`

	// Scoring params
	ScoreInterval          *string  `json:"score_interval,omitempty"`
	WeightGazeStability    *float64 `json:"weight_gaze_stability,omitempty"`
	WeightScreenEngagement *float64 `json:"weight_screen_engagement,omitempty"`
	WeightBlinkPattern     *float64 `json:"weight_blink_pattern,omitempty"`
	WeightSaccadeQuality   *float64 `json:"weight_saccade_quality,omitempty"`
	WeightTemporal         *float64 `json:"weight_temporal_consistency,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated with
// the built-in default. It matches config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		Alpha:                     ptrFloat64(0.2),
		MaxGapDuration:            ptrString("100ms"),
		FixationVelocityThreshold: ptrFloat64(30),
		MinimumDuration:           ptrString("70ms"),
		MergeRadius:               ptrFloat64(50),
		SaccadeVelocityThreshold:  ptrFloat64(100),
		DevicePPI:                 ptrFloat64(163),
		ViewingDistanceInches:     ptrFloat64(12),
		BlinkThreshold:            ptrFloat64(0.5),
		MinBlinkDuration:          ptrString("50ms"),
		MaxBlinkDuration:          ptrString("400ms"),
		DoubleBlinkInterval:       ptrString("500ms"),
		BlinkRateWindow:           ptrString("60s"),
		SamplesPerPoint:           ptrInt(30),
		CalibrationLayout:         ptrInt(9),
		CalibrationMode:           ptrString("auto"),
		ScreenWidth:               ptrFloat64(1024),
		ScreenHeight:              ptrFloat64(768),
		ScoreInterval:             ptrString("5s"),
		WeightGazeStability:       ptrFloat64(0.25),
		WeightScreenEngagement:    ptrFloat64(0.20),
		WeightBlinkPattern:        ptrFloat64(0.15),
		WeightSaccadeQuality:      ptrFloat64(0.20),
		WeightTemporal:            ptrFloat64(0.20),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot be
// loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ and deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Alpha != nil && (*c.Alpha <= 0 || *c.Alpha > 1) {
		return fmt.Errorf("alpha must be in (0, 1], got %f", *c.Alpha)
	}
	if c.BlinkThreshold != nil && (*c.BlinkThreshold <= 0 || *c.BlinkThreshold >= 1) {
		return fmt.Errorf("blink_threshold must be between 0 and 1, got %f", *c.BlinkThreshold)
	}

	for name, v := range map[string]*float64{
		"fixation_velocity_threshold": c.FixationVelocityThreshold,
		"saccade_velocity_threshold":  c.SaccadeVelocityThreshold,
		"device_ppi":                  c.DevicePPI,
		"viewing_distance_inches":     c.ViewingDistanceInches,
		"screen_width":                c.ScreenWidth,
		"screen_height":               c.ScreenHeight,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}
	if c.MergeRadius != nil && *c.MergeRadius < 0 {
		return fmt.Errorf("merge_radius must be non-negative, got %f", *c.MergeRadius)
	}

	for name, v := range map[string]*string{
		"max_gap_duration":      c.MaxGapDuration,
		"minimum_duration":      c.MinimumDuration,
		"min_blink_duration":    c.MinBlinkDuration,
		"max_blink_duration":    c.MaxBlinkDuration,
		"double_blink_interval": c.DoubleBlinkInterval,
		"blink_rate_window":     c.BlinkRateWindow,
		"score_interval":        c.ScoreInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}
	if c.GetMinBlinkDuration() > c.GetMaxBlinkDuration() {
		return fmt.Errorf("min_blink_duration %s exceeds max_blink_duration %s",
			c.GetMinBlinkDuration(), c.GetMaxBlinkDuration())
	}

	if c.SamplesPerPoint != nil && *c.SamplesPerPoint < 1 {
		return fmt.Errorf("samples_per_point must be at least 1, got %d", *c.SamplesPerPoint)
	}
	if c.CalibrationLayout != nil && *c.CalibrationLayout != 5 && *c.CalibrationLayout != 9 {
		return fmt.Errorf("calibration_layout must be 5 or 9, got %d", *c.CalibrationLayout)
	}
	if c.CalibrationMode != nil {
		switch *c.CalibrationMode {
		case "", "auto", "affine", "polynomial":
		default:
			return fmt.Errorf("calibration_mode must be auto, affine or polynomial, got %q", *c.CalibrationMode)
		}
	}

	sum := c.GetWeightGazeStability() + c.GetWeightScreenEngagement() + c.GetWeightBlinkPattern() +
		c.GetWeightSaccadeQuality() + c.GetWeightTemporal()
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("score weights must sum to 1, got %f", sum)
	}
	return nil
}

// parseDurationOr parses s and returns def when s is nil, empty or invalid.
func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}

func float64Or(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetAlpha returns the EMA smoothing factor or the default.
func (c *TuningConfig) GetAlpha() float64 { return float64Or(c.Alpha, 0.2) }

// GetMaxGapDuration returns the smoother reset gap or the default.
func (c *TuningConfig) GetMaxGapDuration() time.Duration {
	return parseDurationOr(c.MaxGapDuration, 100*time.Millisecond)
}

// GetFixationVelocityThreshold returns the I-VT threshold in units/s.
func (c *TuningConfig) GetFixationVelocityThreshold() float64 {
	return float64Or(c.FixationVelocityThreshold, 30)
}

// GetMinimumDuration returns the minimum fixation duration.
func (c *TuningConfig) GetMinimumDuration() time.Duration {
	return parseDurationOr(c.MinimumDuration, 70*time.Millisecond)
}

// GetMergeRadius returns the fixation merge radius.
func (c *TuningConfig) GetMergeRadius() float64 { return float64Or(c.MergeRadius, 50) }

// GetSaccadeVelocityThreshold returns the saccade threshold in deg/s.
func (c *TuningConfig) GetSaccadeVelocityThreshold() float64 {
	return float64Or(c.SaccadeVelocityThreshold, 100)
}

// GetDevicePPI returns the display density used for visual-angle conversion.
func (c *TuningConfig) GetDevicePPI() float64 { return float64Or(c.DevicePPI, 163) }

// GetViewingDistanceInches returns the assumed eye-to-screen distance.
func (c *TuningConfig) GetViewingDistanceInches() float64 {
	return float64Or(c.ViewingDistanceInches, 12)
}

// GetBlinkThreshold returns the eye-closure threshold.
func (c *TuningConfig) GetBlinkThreshold() float64 { return float64Or(c.BlinkThreshold, 0.5) }

// GetMinBlinkDuration returns the shortest accepted blink.
func (c *TuningConfig) GetMinBlinkDuration() time.Duration {
	return parseDurationOr(c.MinBlinkDuration, 50*time.Millisecond)
}

// GetMaxBlinkDuration returns the longest accepted blink.
func (c *TuningConfig) GetMaxBlinkDuration() time.Duration {
	return parseDurationOr(c.MaxBlinkDuration, 400*time.Millisecond)
}

// GetDoubleBlinkInterval returns the maximum gap for a double blink.
func (c *TuningConfig) GetDoubleBlinkInterval() time.Duration {
	return parseDurationOr(c.DoubleBlinkInterval, 500*time.Millisecond)
}

// GetBlinkRateWindow returns the rolling window for blinks-per-minute.
func (c *TuningConfig) GetBlinkRateWindow() time.Duration {
	return parseDurationOr(c.BlinkRateWindow, 60*time.Second)
}

// GetSamplesPerPoint returns the per-target calibration sample cap.
func (c *TuningConfig) GetSamplesPerPoint() int {
	if c.SamplesPerPoint == nil {
		return 30
	}
	return *c.SamplesPerPoint
}

// GetCalibrationLayout returns the number of calibration targets (5 or 9).
func (c *TuningConfig) GetCalibrationLayout() int {
	if c.CalibrationLayout == nil {
		return 9
	}
	return *c.CalibrationLayout
}

// GetCalibrationMode returns the calibration fit mode.
func (c *TuningConfig) GetCalibrationMode() string {
	if c.CalibrationMode == nil || *c.CalibrationMode == "" {
		return "auto"
	}
	return *c.CalibrationMode
}

// GetScreenWidth returns the screen width in points.
func (c *TuningConfig) GetScreenWidth() float64 { return float64Or(c.ScreenWidth, 1024) }

// GetScreenHeight returns the screen height in points.
func (c *TuningConfig) GetScreenHeight() float64 { return float64Or(c.ScreenHeight, 768) }

// GetScoreInterval returns how often (in sample time) a live score is emitted.
// Zero disables live scoring.
func (c *TuningConfig) GetScoreInterval() time.Duration {
	return parseDurationOr(c.ScoreInterval, 5*time.Second)
}

// GetWeightGazeStability returns the gaze stability sub-score weight.
func (c *TuningConfig) GetWeightGazeStability() float64 {
	return float64Or(c.WeightGazeStability, 0.25)
}

// GetWeightScreenEngagement returns the screen engagement sub-score weight.
func (c *TuningConfig) GetWeightScreenEngagement() float64 {
	return float64Or(c.WeightScreenEngagement, 0.20)
}

// GetWeightBlinkPattern returns the blink pattern sub-score weight.
func (c *TuningConfig) GetWeightBlinkPattern() float64 {
	return float64Or(c.WeightBlinkPattern, 0.15)
}

// GetWeightSaccadeQuality returns the saccade quality sub-score weight.
func (c *TuningConfig) GetWeightSaccadeQuality() float64 {
	return float64Or(c.WeightSaccadeQuality, 0.20)
}

// GetWeightTemporal returns the temporal consistency sub-score weight.
func (c *TuningConfig) GetWeightTemporal() float64 {
	return float64Or(c.WeightTemporal, 0.20)
}
