// Package units converts on-screen distances into visual angle.
package units

import "math"

// Default display geometry. Screen points on a 2x phone/tablet panel map to
// roughly 163 points per inch; 12 inches is a typical handheld viewing distance.
const (
	DefaultDevicePPI             = 163.0
	DefaultViewingDistanceInches = 12.0
)

// ViewingGeometry describes the display density and the assumed distance
// between the viewer's eyes and the screen.
type ViewingGeometry struct {
	DevicePPI             float64 // screen points per inch
	ViewingDistanceInches float64 // eye-to-screen distance
}

// DefaultViewingGeometry returns the geometry used when none is configured.
func DefaultViewingGeometry() ViewingGeometry {
	return ViewingGeometry{
		DevicePPI:             DefaultDevicePPI,
		ViewingDistanceInches: DefaultViewingDistanceInches,
	}
}

// normalized substitutes defaults for non-positive fields.
func (g ViewingGeometry) normalized() ViewingGeometry {
	if g.DevicePPI <= 0 {
		g.DevicePPI = DefaultDevicePPI
	}
	if g.ViewingDistanceInches <= 0 {
		g.ViewingDistanceInches = DefaultViewingDistanceInches
	}
	return g
}

// PointsToDegrees converts an on-screen distance to visual degrees using the
// small-angle form atan((d / ppi) / distance).
func (g ViewingGeometry) PointsToDegrees(points float64) float64 {
	g = g.normalized()
	inches := math.Abs(points) / g.DevicePPI
	return math.Atan(inches/g.ViewingDistanceInches) * 180 / math.Pi
}

// DegreesToPoints is the inverse of PointsToDegrees.
func (g ViewingGeometry) DegreesToPoints(degrees float64) float64 {
	g = g.normalized()
	return math.Tan(math.Abs(degrees)*math.Pi/180) * g.ViewingDistanceInches * g.DevicePPI
}

// Rad2Deg and Deg2Rad are plain angle conversions.
func Rad2Deg(rad float64) float64 { return rad * 180 / math.Pi }
func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180 }
