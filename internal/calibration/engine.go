package calibration

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/monitoring"
)

// Minimum target centroids per model. Below these Compute returns identity.
const (
	AffineMinTargets     = 2
	PolynomialMinTargets = 3
	// AutoPolynomialTargets is the centroid count at which ModeAuto switches
	// from affine to the full six-term polynomial.
	AutoPolynomialTargets = PolynomialTerms
)

// Status is the tagged outcome of a calibration fit.
type Status string

const (
	// StatusFitted means every axis was fitted from well-conditioned data.
	StatusFitted Status = "fitted"
	// StatusInsufficientData means too few targets had samples; the
	// transform is identity with accuracy 0.
	StatusInsufficientData Status = "insufficient_data"
	// StatusDegenerate means at least one axis hit a singular or zero-variance
	// system and fell back to identity for that axis.
	StatusDegenerate Status = "degenerate"
)

// Sample is one raw gaze measurement taken while target TargetIndex was shown.
type Sample struct {
	TargetIndex int        `json:"target"`
	Measured    gaze.Point `json:"measured"`
}

// Result is the outcome of Compute.
type Result struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Transform Transform `json:"transform"`
	Targets   int       `json:"targets"` // centroids used in the fit
	Layout    Layout    `json:"layout"`
}

// Usable reports whether the transform was fitted from enough data to apply.
func (r Result) Usable() bool {
	return r.Status != StatusInsufficientData
}

// Engine collects per-target samples and fits a Transform. The caller drives
// the protocol: show a target, stream samples with AddSample, advance, and
// finally call Compute. Engine is not safe for concurrent use.
type Engine struct {
	cfg     Config
	targets []gaze.Point // normalized
	samples [][]gaze.Point
	result  *Result
	logf    func(format string, v ...interface{})
}

// NewEngine creates a calibration engine. Zero-valued config fields take the
// defaults from DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SamplesPerPoint <= 0 {
		cfg.SamplesPerPoint = def.SamplesPerPoint
	}
	if cfg.Layout != LayoutFivePoint && cfg.Layout != LayoutNinePoint {
		cfg.Layout = def.Layout
	}
	switch cfg.Mode {
	case ModeAuto, ModeAffine, ModePolynomial:
	default:
		cfg.Mode = ModeAuto
	}
	if cfg.Screen.Width <= 0 || cfg.Screen.Height <= 0 {
		cfg.Screen = def.Screen
	}

	e := &Engine{
		cfg:     cfg,
		targets: cfg.Layout.Targets(),
		logf:    monitoring.Prefixed("calibration"),
	}
	e.Reset()
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start begins a new calibration run, discarding samples and any prior result.
func (e *Engine) Start() {
	e.Reset()
}

// Reset discards all collected samples and any prior result.
func (e *Engine) Reset() {
	e.samples = make([][]gaze.Point, len(e.targets))
	e.result = nil
}

// Targets returns the normalized target positions.
func (e *Engine) Targets() []gaze.Point {
	out := make([]gaze.Point, len(e.targets))
	copy(out, e.targets)
	return out
}

// ScreenTargets returns the target positions in screen coordinates.
func (e *Engine) ScreenTargets() []gaze.Point {
	out := make([]gaze.Point, len(e.targets))
	for i, t := range e.targets {
		out[i] = e.cfg.Screen.ToScreen(t)
	}
	return out
}

// AddSample records a raw gaze point for target targetIndex. It returns false
// when the sample was ignored: unknown target, non-finite point, or the
// target already holds SamplesPerPoint samples.
func (e *Engine) AddSample(targetIndex int, p gaze.Point) bool {
	if targetIndex < 0 || targetIndex >= len(e.samples) || !p.IsFinite() {
		return false
	}
	if len(e.samples[targetIndex]) >= e.cfg.SamplesPerPoint {
		return false
	}
	e.samples[targetIndex] = append(e.samples[targetIndex], p)
	return true
}

// Add records s; see AddSample.
func (e *Engine) Add(s Sample) bool {
	return e.AddSample(s.TargetIndex, s.Measured)
}

// SampleCount returns the number of samples held for targetIndex.
func (e *Engine) SampleCount(targetIndex int) int {
	if targetIndex < 0 || targetIndex >= len(e.samples) {
		return 0
	}
	return len(e.samples[targetIndex])
}

// NextTarget returns the first target that still needs samples.
func (e *Engine) NextTarget() (int, bool) {
	for i, s := range e.samples {
		if len(s) < e.cfg.SamplesPerPoint {
			return i, true
		}
	}
	return 0, false
}

// Complete reports whether every target holds SamplesPerPoint samples.
func (e *Engine) Complete() bool {
	_, pending := e.NextTarget()
	return !pending
}

// Result returns the last computed result, if any.
func (e *Engine) Result() (Result, bool) {
	if e.result == nil {
		return Result{}, false
	}
	return *e.result, true
}

// Compute averages each target's samples and fits the configured model.
func (e *Engine) Compute() Result {
	measured, targets := e.centroids()
	n := len(measured)

	mode := e.cfg.Mode
	if mode == ModeAuto {
		mode = ModeAffine
		if n >= AutoPolynomialTargets {
			mode = ModePolynomial
		}
	}
	minimum := AffineMinTargets
	if mode == ModePolynomial {
		minimum = PolynomialMinTargets
	}

	res := Result{
		ID:      uuid.NewString(),
		Targets: n,
		Layout:  e.cfg.Layout,
	}
	if n < minimum {
		e.logf("%s fit needs %d targets with samples, have %d; using identity", mode, minimum, n)
		res.Status = StatusInsufficientData
		res.Transform = Identity()
		e.result = &res
		return res
	}

	var (
		t  Transform
		ok bool
	)
	if mode == ModePolynomial {
		t, ok = fitPolynomial(measured, targets)
	} else {
		t, ok = fitAffine(measured, targets)
	}
	res.Status = StatusFitted
	if !ok {
		e.logf("%s fit degenerate over %d targets; identity used for the affected axis", mode, n)
		res.Status = StatusDegenerate
	}
	res.Transform = t.withAccuracy(meanResidual(t, measured, targets))
	e.result = &res
	return res
}

// centroids returns the mean measured point and the screen target for every
// target with at least one sample.
func (e *Engine) centroids() (measured, targets []gaze.Point) {
	for i, pts := range e.samples {
		if len(pts) == 0 {
			continue
		}
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for j, p := range pts {
			xs[j], ys[j] = p.X, p.Y
		}
		measured = append(measured, gaze.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)})
		targets = append(targets, e.cfg.Screen.ToScreen(e.targets[i]))
	}
	return measured, targets
}
