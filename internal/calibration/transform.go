package calibration

import (
	"math"

	"github.com/banshee-data/focus.report/internal/gaze"
)

// Model identifies which correction a Transform applies.
type Model string

const (
	ModelIdentity   Model = "identity"
	ModelAffine     Model = "affine"
	ModelPolynomial Model = "polynomial"
)

// PolynomialTerms is the number of polynomial features: [1, x, y, x*y, x², y²].
const PolynomialTerms = 6

// Transform maps raw gaze points to corrected screen points. A Transform is a
// value: it has no reference to the engine that produced it and must not be
// mutated after creation.
//
// Affine transforms scale and offset each axis independently, then rotate the
// result by Rotation about Pivot (the centroid of the calibration targets).
// Polynomial transforms evaluate CoeffsX and CoeffsY over the six features.
type Transform struct {
	Model    Model      `json:"model"`
	ScaleX   float64    `json:"scale_x"`
	ScaleY   float64    `json:"scale_y"`
	OffsetX  float64    `json:"offset_x"`
	OffsetY  float64    `json:"offset_y"`
	Rotation float64    `json:"rotation"` // radians, in [-π, π]
	Pivot    gaze.Point `json:"pivot"`
	CoeffsX  []float64  `json:"coeffs_x,omitempty"`
	CoeffsY  []float64  `json:"coeffs_y,omitempty"`
	Accuracy float64    `json:"accuracy"` // mean residual in screen units; 0 when nothing was fitted
}

// Identity returns a transform that leaves every point unchanged.
func Identity() Transform {
	return Transform{Model: ModelIdentity, ScaleX: 1, ScaleY: 1}
}

// NewAffine returns an affine transform with the given parameters.
func NewAffine(scaleX, scaleY, offsetX, offsetY, rotation float64, pivot gaze.Point) Transform {
	return Transform{
		Model:    ModelAffine,
		ScaleX:   scaleX,
		ScaleY:   scaleY,
		OffsetX:  offsetX,
		OffsetY:  offsetY,
		Rotation: normalizeAngle(rotation),
		Pivot:    pivot,
	}
}

// NewPolynomial returns a polynomial transform. Coefficient slices shorter
// than PolynomialTerms are padded with zeros; the inputs are copied.
func NewPolynomial(coeffsX, coeffsY []float64) Transform {
	return Transform{
		Model:   ModelPolynomial,
		ScaleX:  1,
		ScaleY:  1,
		CoeffsX: padCoefficients(coeffsX),
		CoeffsY: padCoefficients(coeffsY),
	}
}

// Apply maps a raw point through the transform.
func (t Transform) Apply(p gaze.Point) gaze.Point {
	if t.Model == ModelPolynomial && len(t.CoeffsX) == PolynomialTerms && len(t.CoeffsY) == PolynomialTerms {
		f := polynomialFeatures(p.X, p.Y)
		return gaze.Point{X: dot(t.CoeffsX, f), Y: dot(t.CoeffsY, f)}
	}

	q := gaze.Point{
		X: t.ScaleX*p.X + t.OffsetX,
		Y: t.ScaleY*p.Y + t.OffsetY,
	}
	if t.Rotation == 0 {
		return q
	}
	return rotateAbout(q, t.Pivot, t.Rotation)
}

// IsIdentity reports whether Apply leaves points unchanged.
func (t Transform) IsIdentity() bool {
	return t.Model == ModelIdentity
}

// withAccuracy returns a copy of t carrying the given accuracy.
func (t Transform) withAccuracy(acc float64) Transform {
	t.Accuracy = acc
	return t
}

func polynomialFeatures(x, y float64) [PolynomialTerms]float64 {
	return [PolynomialTerms]float64{1, x, y, x * y, x * x, y * y}
}

func dot(coeffs []float64, f [PolynomialTerms]float64) float64 {
	var s float64
	for i, c := range coeffs {
		s += c * f[i]
	}
	return s
}

func padCoefficients(c []float64) []float64 {
	out := make([]float64, PolynomialTerms)
	copy(out, c)
	return out
}

func rotateAbout(p, pivot gaze.Point, angle float64) gaze.Point {
	sin, cos := math.Sincos(angle)
	dx, dy := p.X-pivot.X, p.Y-pivot.Y
	return gaze.Point{
		X: pivot.X + dx*cos - dy*sin,
		Y: pivot.Y + dx*sin + dy*cos,
	}
}

// normalizeAngle wraps a into [-π, π].
func normalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	return math.Remainder(a, 2*math.Pi)
}
