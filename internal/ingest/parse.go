// Package ingest reads gaze samples and calibration observations from line
// oriented sources: recorded files for replay and serial-attached trackers for
// live sessions.
//
// Sample lines are either CSV, "t,x,y" or "t,x,y,left,right" with t in
// seconds and closures in [0,1], or a JSON object with the gaze.Sample field
// names. Calibration lines are "target,x,y". Blank lines and lines starting
// with '#' are ignored.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/gaze"
)

var (
	// ErrMalformedLine wraps every parse failure.
	ErrMalformedLine = errors.New("malformed line")
	// ErrSkipLine is returned for blank and comment lines.
	ErrSkipLine = errors.New("skip line")
)

// LineKind classifies a raw input line.
type LineKind int

const (
	LineSkip LineKind = iota
	LineCSV
	LineJSON
)

// Classify returns how line should be parsed.
func Classify(line string) LineKind {
	line = strings.TrimSpace(line)
	switch {
	case line == "", strings.HasPrefix(line, "#"):
		return LineSkip
	case strings.HasPrefix(line, "{"):
		return LineJSON
	default:
		return LineCSV
	}
}

// ParseSample parses one sample line. Closures default to 0 (eyes open) when
// omitted.
func ParseSample(line string) (gaze.Sample, error) {
	line = strings.TrimSpace(line)
	switch Classify(line) {
	case LineSkip:
		return gaze.Sample{}, ErrSkipLine
	case LineJSON:
		var s gaze.Sample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return gaze.Sample{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		if err := ValidateSample(s); err != nil {
			return gaze.Sample{}, err
		}
		return s, nil
	}

	fields, err := parseFloats(line)
	if err != nil {
		return gaze.Sample{}, err
	}
	if len(fields) != 3 && len(fields) != 5 {
		return gaze.Sample{}, fmt.Errorf("%w: want 3 or 5 fields, got %d", ErrMalformedLine, len(fields))
	}
	s := gaze.Sample{
		Timestamp: fields[0],
		Point:     gaze.Point{X: fields[1], Y: fields[2]},
	}
	if len(fields) == 5 {
		s.LeftClosure, s.RightClosure = fields[3], fields[4]
	}
	if err := ValidateSample(s); err != nil {
		return gaze.Sample{}, err
	}
	return s, nil
}

// ParseCalibration parses one "target,x,y" calibration line.
func ParseCalibration(line string) (calibration.Sample, error) {
	line = strings.TrimSpace(line)
	switch Classify(line) {
	case LineSkip:
		return calibration.Sample{}, ErrSkipLine
	case LineJSON:
		var s calibration.Sample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return calibration.Sample{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		return s, nil
	}

	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return calibration.Sample{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedLine, len(parts))
	}
	idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || idx < 0 {
		return calibration.Sample{}, fmt.Errorf("%w: bad target index %q", ErrMalformedLine, parts[0])
	}
	coords, err := parseFloats(parts[1] + "," + parts[2])
	if err != nil {
		return calibration.Sample{}, err
	}
	return calibration.Sample{
		TargetIndex: idx,
		Measured:    gaze.Point{X: coords[0], Y: coords[1]},
	}, nil
}

func parseFloats(line string) ([]float64, error) {
	parts := strings.Split(line, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedLine, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// ValidateSample rejects samples whose timestamp or closures are unusable.
// Non-finite gaze coordinates are allowed: they signal tracking loss.
func ValidateSample(s gaze.Sample) error {
	if math.IsNaN(s.Timestamp) || math.IsInf(s.Timestamp, 0) {
		return fmt.Errorf("%w: non-finite timestamp", ErrMalformedLine)
	}
	for _, c := range []float64{s.LeftClosure, s.RightClosure} {
		if math.IsNaN(c) || c < 0 || c > 1 {
			return fmt.Errorf("%w: closure %v outside [0,1]", ErrMalformedLine, c)
		}
	}
	return nil
}
