package calibration

import (
	"fmt"

	"github.com/banshee-data/focus.report/internal/gaze"
)

// Layout is the number of calibration targets shown to the user.
type Layout int

const (
	LayoutFivePoint Layout = 5
	LayoutNinePoint Layout = 9
)

// Targets returns the normalized target positions for the layout, in the order
// they are presented. Unknown layouts fall back to nine points.
func (l Layout) Targets() []gaze.Point {
	if l == LayoutFivePoint {
		return []gaze.Point{
			{X: 0.5, Y: 0.5},
			{X: 0.1, Y: 0.1},
			{X: 0.9, Y: 0.1},
			{X: 0.1, Y: 0.9},
			{X: 0.9, Y: 0.9},
		}
	}
	edges := []float64{0.1, 0.5, 0.9}
	targets := make([]gaze.Point, 0, 9)
	for _, y := range edges {
		for _, x := range edges {
			targets = append(targets, gaze.Point{X: x, Y: y})
		}
	}
	return targets
}

func (l Layout) String() string {
	return fmt.Sprintf("%d-point", int(l))
}

// ScreenSize is the display size in the same units as gaze points.
type ScreenSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToScreen converts a normalized 0..1 position to absolute screen coordinates.
func (s ScreenSize) ToScreen(normalized gaze.Point) gaze.Point {
	return gaze.Point{X: normalized.X * s.Width, Y: normalized.Y * s.Height}
}

// Contains reports whether p lies on the screen, edges included.
func (s ScreenSize) Contains(p gaze.Point) bool {
	return p.IsFinite() && p.X >= 0 && p.Y >= 0 && p.X <= s.Width && p.Y <= s.Height
}
