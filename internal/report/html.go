package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/session"
)

// AssetsHost is where rendered pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// FixationChart is a scatter of fixation centres. The third value of each
// point is the duration in milliseconds, which drives the colour scale.
func FixationChart(sum session.Summary, screen calibration.ScreenSize) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(sum.Fixations))
	var longestMs float64
	for _, f := range sum.Fixations {
		ms := f.Duration() * 1000
		if ms > longestMs {
			longestMs = ms
		}
		data = append(data, opts.ScatterData{
			Value:      []interface{}{f.Center.X, f.Center.Y, ms},
			SymbolSize: symbolSize(ms),
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Focus session", Width: "900px", Height: "675px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Fixations", Subtitle: fmt.Sprintf("session=%s count=%d", sum.ID, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: screen.Width, Name: "x (pt)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: screen.Height, Name: "y (pt)", NameLocation: "middle", NameGap: 35}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(longestMs),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("fixations", data)
	return scatter
}

// symbolSize maps a fixation duration to a marker size in pixels.
func symbolSize(ms float64) int {
	size := 6 + int(ms/50)
	if size > 40 {
		return 40
	}
	return size
}

// SubScoreChart is a bar chart of the five weighted components.
func SubScoreChart(sum session.Summary) *charts.Bar {
	s := sum.Metrics.SubScores
	x := []string{"Gaze stability", "Screen engagement", "Blink pattern", "Saccade quality", "Temporal consistency"}
	y := []opts.BarData{
		{Value: round1(s.GazeStability)},
		{Value: round1(s.ScreenEngagement)},
		{Value: round1(s.BlinkPattern)},
		{Value: round1(s.SaccadeQuality)},
		{Value: round1(s.TemporalConsistency)},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Focus score %d", sum.Metrics.FocusScore)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	bar.SetXAxis(x).
		AddSeries("sub-scores", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// SaccadeChart counts saccades per amplitude band.
func SaccadeChart(sum session.Summary) *charts.Bar {
	counts := map[gaze.SaccadeType]int{}
	for _, s := range sum.Saccades {
		counts[s.Type]++
	}
	bands := []gaze.SaccadeType{gaze.SaccadeMicro, gaze.SaccadeSmall, gaze.SaccadeLarge}
	x := make([]string, len(bands))
	y := make([]opts.BarData, len(bands))
	for i, b := range bands {
		x[i] = string(b)
		y[i] = opts.BarData{Value: counts[b]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Saccades", Subtitle: fmt.Sprintf("mean amplitude %.1f°", sum.Metrics.AverageSaccadeAmplitude)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("saccades", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// WriteHTML renders the full session page.
func WriteHTML(w io.Writer, sum session.Summary, screen calibration.ScreenSize) error {
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(
		SubScoreChart(sum),
		FixationChart(sum, screen),
		SaccadeChart(sum),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render session page: %w", err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
