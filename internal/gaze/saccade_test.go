package gaze

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timedPoint struct {
	p Point
	t float64
}

func runSaccades(d *SaccadeDetector, samples []timedPoint) []Saccade {
	var out []Saccade
	for _, s := range samples {
		if sac, ok := d.Process(s.p, s.t); ok {
			out = append(out, sac)
		}
	}
	return out
}

func TestClassifySaccade(t *testing.T) {
	t.Parallel()
	tests := []struct {
		degrees float64
		want    SaccadeType
	}{
		{0, SaccadeMicro},
		{0.99, SaccadeMicro},
		{1, SaccadeSmall},
		{5, SaccadeSmall},
		{5.01, SaccadeLarge},
		{30, SaccadeLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySaccade(tt.degrees), "%.2f degrees", tt.degrees)
	}
}

func TestSaccadeHorizontalLarge(t *testing.T) {
	t.Parallel()
	d := NewSaccadeDetector(DefaultSaccadeConfig())
	dt := 1.0 / 30

	got := runSaccades(d, []timedPoint{
		{Point{X: 100, Y: 500}, 0},
		{Point{X: 100, Y: 500}, dt},
		{Point{X: 400, Y: 500}, 2 * dt},
		{Point{X: 700, Y: 500}, 3 * dt},
		{Point{X: 700, Y: 500}, 4 * dt},
	})
	require.Len(t, got, 1)
	sac := got[0]

	assert.Equal(t, Point{X: 100, Y: 500}, sac.StartPoint)
	assert.Equal(t, Point{X: 700, Y: 500}, sac.EndPoint)
	assert.InDelta(t, dt, sac.StartTime, 1e-12)
	assert.InDelta(t, 2*dt, sac.Duration, 1e-12)
	assert.InDelta(t, 0, sac.DirectionRadians, 1e-12)

	wantDeg := math.Atan(600.0/163/12) * 180 / math.Pi
	assert.InDelta(t, wantDeg, sac.AmplitudeDegrees, 1e-9)
	assert.Equal(t, SaccadeLarge, sac.Type)
	assert.False(t, d.InSaccade())
}

func TestSaccadeUpwardIsNegativeAngle(t *testing.T) {
	t.Parallel()
	d := NewSaccadeDetector(DefaultSaccadeConfig())

	got := runSaccades(d, []timedPoint{
		{Point{X: 500, Y: 600}, 0},
		{Point{X: 500, Y: 200}, 0.033},
		{Point{X: 500, Y: 200}, 0.066},
	})
	require.Len(t, got, 1)
	assert.InDelta(t, -math.Pi/2, got[0].DirectionRadians, 1e-12)

	got = runSaccades(d, []timedPoint{
		{Point{X: 500, Y: 600}, 0.1},
		{Point{X: 500, Y: 600}, 0.133},
	})
	require.Len(t, got, 1)
	assert.InDelta(t, math.Pi/2, got[0].DirectionRadians, 1e-12, "downward is positive")
}

func TestSaccadeAmplitudeBands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		jump float64 // points
		dt   float64
		want SaccadeType
	}{
		{name: "micro", jump: 20, dt: 0.005, want: SaccadeMicro},
		{name: "small", jump: 100, dt: 0.01, want: SaccadeSmall},
		{name: "large", jump: 500, dt: 0.033, want: SaccadeLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewSaccadeDetector(DefaultSaccadeConfig())
			got := runSaccades(d, []timedPoint{
				{Point{X: 0, Y: 0}, 0},
				{Point{X: tt.jump, Y: 0}, tt.dt},
				{Point{X: tt.jump, Y: 0}, 2 * tt.dt},
			})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Type)
		})
	}
}

func TestSaccadeSlowDriftIgnored(t *testing.T) {
	t.Parallel()
	d := NewSaccadeDetector(DefaultSaccadeConfig())

	// 10 points per 33ms is well under 100 deg/s.
	var samples []timedPoint
	for i := 0; i < 30; i++ {
		samples = append(samples, timedPoint{Point{X: float64(i) * 10, Y: 300}, float64(i) * 0.033})
	}
	assert.Empty(t, runSaccades(d, samples))
	assert.Empty(t, d.Saccades())
}

func TestSaccadeNonPositiveDtDropped(t *testing.T) {
	t.Parallel()
	d := NewSaccadeDetector(DefaultSaccadeConfig())

	d.Process(Point{X: 0, Y: 0}, 1)
	_, ok := d.Process(Point{X: 900, Y: 0}, 1)
	assert.False(t, ok)
	assert.False(t, d.InSaccade(), "duplicate timestamp must not start a saccade")

	d.Process(Point{X: 900, Y: 0}, 0.5)
	assert.False(t, d.InSaccade())
}

func TestSaccadeReset(t *testing.T) {
	t.Parallel()
	d := NewSaccadeDetector(DefaultSaccadeConfig())

	runSaccades(d, []timedPoint{
		{Point{X: 0, Y: 0}, 0},
		{Point{X: 600, Y: 0}, 0.033},
		{Point{X: 600, Y: 0}, 0.066},
		{Point{X: 0, Y: 0}, 0.1},
	})
	require.Len(t, d.Saccades(), 1)
	require.True(t, d.InSaccade())

	d.Reset()
	assert.Empty(t, d.Saccades())
	assert.False(t, d.InSaccade())

	// First sample after reset has no predecessor and cannot start a saccade.
	d.Process(Point{X: 800, Y: 800}, 5)
	assert.False(t, d.InSaccade())
}
