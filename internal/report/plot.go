// Package report renders a finished focus session as a static PNG (gonum/plot)
// or an interactive HTML page (go-echarts).
package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/security"
	"github.com/banshee-data/focus.report/internal/session"
)

// Fixation glyph radius bounds.
const (
	minGlyphRadius = 2 * vg.Millimeter
	maxGlyphRadius = 9 * vg.Millimeter
)

var saccadeColors = map[gaze.SaccadeType]color.Color{
	gaze.SaccadeMicro: color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
	gaze.SaccadeSmall: color.RGBA{R: 0x1f, G: 0x9e, B: 0x89, A: 0xff},
	gaze.SaccadeLarge: color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

var fixationColor = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xb0}

// GazePlot builds the fixation and saccade map for sum. Fixation glyphs grow
// with duration; saccades are drawn start to end, coloured by amplitude band.
// The y axis is inverted so the plot reads like the screen.
func GazePlot(sum session.Summary, screen calibration.ScreenSize) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - focus %d", shortID(sum.ID), sum.Metrics.FocusScore)
	p.X.Label.Text = "x (pt)"
	p.Y.Label.Text = "y (pt)"
	p.X.Min, p.X.Max = 0, screen.Width
	p.Y.Min, p.Y.Max = 0, screen.Height
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	for _, s := range sum.Saccades {
		line, err := plotter.NewLine(plotter.XYs{
			{X: s.StartPoint.X, Y: s.StartPoint.Y},
			{X: s.EndPoint.X, Y: s.EndPoint.Y},
		})
		if err != nil {
			return nil, fmt.Errorf("saccade line: %w", err)
		}
		line.Color = saccadeColors[s.Type]
		line.Width = vg.Points(1)
		p.Add(line)
	}

	if len(sum.Fixations) > 0 {
		pts := make(plotter.XYs, len(sum.Fixations))
		var longest float64
		for i, f := range sum.Fixations {
			pts[i] = plotter.XY{X: f.Center.X, Y: f.Center.Y}
			longest = math.Max(longest, f.Duration())
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("fixation scatter: %w", err)
		}
		scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  fixationColor,
				Shape:  draw.CircleGlyph{},
				Radius: glyphRadius(sum.Fixations[i].Duration(), longest),
			}
		}
		p.Add(scatter)
		p.Legend.Add("fixation", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// glyphRadius scales d linearly between the radius bounds.
func glyphRadius(d, longest float64) vg.Length {
	if longest <= 0 {
		return minGlyphRadius
	}
	frac := math.Min(math.Max(d/longest, 0), 1)
	return minGlyphRadius + vg.Length(frac)*(maxGlyphRadius-minGlyphRadius)
}

// WritePNG renders the gaze plot for sum as a 10x7.5 inch PNG.
func WritePNG(w io.Writer, sum session.Summary, screen calibration.ScreenSize) error {
	p, err := GazePlot(sum, screen)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(10*vg.Inch, 7.5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG writes the plot to dir/<session id>.png and returns the path.
func SavePNG(dir string, sum session.Summary, screen calibration.ScreenSize) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, security.SanitizeFilename(sum.ID)+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePNG(f, sum, screen); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
