package report

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/focus"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/session"
)

var screen = calibration.ScreenSize{Width: 1024, Height: 768}

func sampleSummary() session.Summary {
	return session.Summary{
		ID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Metrics: focus.SessionMetrics{
			FocusScore:              64,
			SubScores:               focus.SubScores{GazeStability: 71.26, ScreenEngagement: 90, BlinkPattern: 50, SaccadeQuality: 40, TemporalConsistency: 55.56},
			AverageSaccadeAmplitude: 6.2,
		},
		Fixations: []gaze.Fixation{
			{Center: gaze.Point{X: 200, Y: 150}, StartTime: 0, EndTime: 0.25, SampleCount: 8},
			{Center: gaze.Point{X: 700, Y: 500}, StartTime: 0.35, EndTime: 0.95, SampleCount: 19},
		},
		Saccades: []gaze.Saccade{
			{StartPoint: gaze.Point{X: 200, Y: 150}, EndPoint: gaze.Point{X: 700, Y: 500}, AmplitudeDegrees: 11, Type: gaze.SaccadeLarge},
			{StartPoint: gaze.Point{X: 700, Y: 500}, EndPoint: gaze.Point{X: 710, Y: 505}, AmplitudeDegrees: 0.5, Type: gaze.SaccadeMicro},
		},
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, sampleSummary(), screen))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestWritePNGEmptySession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, session.Summary{ID: "empty"}, screen))
	assert.NotZero(t, buf.Len())
}

func TestSavePNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	path, err := SavePNG(dir, sampleSummary(), screen)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, sampleSummary().ID+".png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestGlyphRadius(t *testing.T) {
	tests := []struct {
		d, longest float64
		want       vg.Length
	}{
		{0.3, 0, minGlyphRadius},
		{0, 0.6, minGlyphRadius},
		{0.6, 0.6, maxGlyphRadius},
		{0.3, 0.6, (minGlyphRadius + maxGlyphRadius) / 2},
		{2, 0.6, maxGlyphRadius},
	}
	for _, tt := range tests {
		if got := glyphRadius(tt.d, tt.longest); math.Abs(float64(got-tt.want)) > 1e-9 {
			t.Errorf("glyphRadius(%v, %v) = %v, want %v", tt.d, tt.longest, got, tt.want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleSummary(), screen))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "renders a full page")
	assert.Contains(t, html, "Focus score 64")
	assert.Contains(t, html, "Fixations")
	assert.Contains(t, html, "Saccades")
}

func TestSymbolSize(t *testing.T) {
	assert.Equal(t, 6, symbolSize(0))
	assert.Equal(t, 12, symbolSize(300))
	assert.Equal(t, 40, symbolSize(5000))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 71.3, round1(71.26))
	assert.Equal(t, 55.6, round1(55.56))
}

func TestSavePNGSanitizesID(t *testing.T) {
	dir := t.TempDir()
	sum := sampleSummary()
	sum.ID = "../escape"
	path, err := SavePNG(dir, sum, screen)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.png"), path)
}
