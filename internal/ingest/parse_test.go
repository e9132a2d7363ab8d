package ingest

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/gaze"
)

func TestParseSample(t *testing.T) {
	tests := []struct {
		name string
		line string
		want gaze.Sample
	}{
		{
			name: "three fields",
			line: "0.5,100,200",
			want: gaze.Sample{Timestamp: 0.5, Point: gaze.Point{X: 100, Y: 200}},
		},
		{
			name: "five fields with spaces",
			line: " 1.25, 10.5 , 20 ,0.1,0.9 ",
			want: gaze.Sample{Timestamp: 1.25, Point: gaze.Point{X: 10.5, Y: 20}, LeftClosure: 0.1, RightClosure: 0.9},
		},
		{
			name: "json",
			line: `{"t":2,"point":{"x":3,"y":4},"left_closure":1,"right_closure":0}`,
			want: gaze.Sample{Timestamp: 2, Point: gaze.Point{X: 3, Y: 4}, LeftClosure: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSample(tt.line)
			if err != nil {
				t.Fatalf("ParseSample(%q) error = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseSample(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseSampleTrackingLoss(t *testing.T) {
	got, err := ParseSample("3,NaN,NaN")
	if err != nil {
		t.Fatalf("ParseSample error = %v", err)
	}
	if !math.IsNaN(got.Point.X) || !math.IsNaN(got.Point.Y) {
		t.Errorf("point = %+v, want NaN coordinates", got.Point)
	}
}

func TestParseSampleErrors(t *testing.T) {
	lines := []string{
		"1,2",
		"1,2,3,4",
		"a,b,c",
		"NaN,1,1",
		"1,1,1,1.5,0",
		"1,1,1,0,-0.1",
		"{not json",
	}
	for _, line := range lines {
		if _, err := ParseSample(line); !errors.Is(err, ErrMalformedLine) {
			t.Errorf("ParseSample(%q) error = %v, want ErrMalformedLine", line, err)
		}
	}
}

func TestValidateSample(t *testing.T) {
	nan := math.NaN()
	if err := ValidateSample(gaze.Sample{Point: gaze.Point{X: nan, Y: nan}, Timestamp: 1}); err != nil {
		t.Errorf("tracking loss rejected: %v", err)
	}
	bad := []gaze.Sample{
		{Timestamp: math.Inf(1)},
		{Timestamp: 1, LeftClosure: 1.5},
		{Timestamp: 1, RightClosure: nan},
	}
	for _, s := range bad {
		if err := ValidateSample(s); !errors.Is(err, ErrMalformedLine) {
			t.Errorf("ValidateSample(%+v) error = %v, want ErrMalformedLine", s, err)
		}
	}
}

func TestParseSampleSkips(t *testing.T) {
	for _, line := range []string{"", "   ", "# t,x,y", "#"} {
		if _, err := ParseSample(line); !errors.Is(err, ErrSkipLine) {
			t.Errorf("ParseSample(%q) error = %v, want ErrSkipLine", line, err)
		}
	}
}

func TestParseCalibration(t *testing.T) {
	got, err := ParseCalibration("4, 510.5, 380")
	if err != nil {
		t.Fatalf("ParseCalibration error = %v", err)
	}
	want := calibration.Sample{TargetIndex: 4, Measured: gaze.Point{X: 510.5, Y: 380}}
	if got != want {
		t.Errorf("ParseCalibration = %+v, want %+v", got, want)
	}

	got, err = ParseCalibration(`{"target":2,"measured":{"x":1,"y":2}}`)
	if err != nil {
		t.Fatalf("ParseCalibration json error = %v", err)
	}
	if got.TargetIndex != 2 || got.Measured != (gaze.Point{X: 1, Y: 2}) {
		t.Errorf("ParseCalibration json = %+v", got)
	}

	for _, line := range []string{"1,2", "-1,2,3", "x,2,3", "1,2,y"} {
		if _, err := ParseCalibration(line); !errors.Is(err, ErrMalformedLine) {
			t.Errorf("ParseCalibration(%q) error = %v, want ErrMalformedLine", line, err)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]LineKind{
		"":          LineSkip,
		"# comment": LineSkip,
		"1,2,3":     LineCSV,
		` {"t":1}`:  LineJSON,
	}
	for line, want := range tests {
		if got := Classify(line); got != want {
			t.Errorf("Classify(%q) = %d, want %d", line, got, want)
		}
	}
}
