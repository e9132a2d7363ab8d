package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/monitoring"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 64 * 1024

// Stats counts what a Source has read so far.
type Stats struct {
	Lines     int64 `json:"lines"`
	Samples   int64 `json:"samples"`
	Skipped   int64 `json:"skipped"`
	Malformed int64 `json:"malformed"`
}

// Source reads gaze samples line by line from a recording or a serial port.
type Source struct {
	r    io.ReadCloser
	logf func(format string, v ...interface{})

	lines, samples, skipped, malformed atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// NewSource wraps r. The Source owns r and closes it in Close.
func NewSource(r io.ReadCloser) *Source {
	return &Source{
		r:    r,
		logf: monitoring.Prefixed("ingest"),
	}
}

// Stats returns a snapshot of the line counters.
func (s *Source) Stats() Stats {
	return Stats{
		Lines:     s.lines.Load(),
		Samples:   s.samples.Load(),
		Skipped:   s.skipped.Load(),
		Malformed: s.malformed.Load(),
	}
}

// Monitor parses lines into out until the input ends or ctx is done.
// Malformed lines are logged and skipped. Monitor does not close out.
//
// It returns nil at end of input, ctx.Err() on cancellation, or the read
// error that stopped the scanner.
func (s *Source) Monitor(ctx context.Context, out chan<- gaze.Sample) error {
	scan := bufio.NewScanner(s.r)
	scan.Buffer(make([]byte, 0, 4096), maxLineBytes)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs in its own goroutine so the loop below can
	// still observe cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return s.readErr(err)

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return s.readErr(err)
				default:
					return nil
				}
			}
			sample, ok := s.parse(line)
			if !ok {
				continue
			}
			select {
			case out <- sample:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// parse updates the counters and reports whether line produced a sample.
func (s *Source) parse(line string) (gaze.Sample, bool) {
	n := s.lines.Add(1)
	sample, err := ParseSample(line)
	switch {
	case err == nil:
		s.samples.Add(1)
		return sample, true
	case errors.Is(err, ErrSkipLine):
		s.skipped.Add(1)
	default:
		s.malformed.Add(1)
		s.logf("line %d: %v", n, err)
	}
	return gaze.Sample{}, false
}

// readErr treats a read on a closed source as a clean end of input.
func (s *Source) readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return fmt.Errorf("read gaze source: %w", err)
}

// Close closes the underlying reader. It is safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.r.Close()
	})
	return s.closeErr
}

// Stream runs Monitor on its own goroutine. The sample channel is closed when
// Monitor returns; its result is then delivered on the error channel.
func (s *Source) Stream(ctx context.Context, buffer int) (<-chan gaze.Sample, <-chan error) {
	out := make(chan gaze.Sample, buffer)
	errc := make(chan error, 1)
	go func() {
		err := s.Monitor(ctx, out)
		close(out)
		errc <- err
	}()
	return out, errc
}

// ReadSamples parses every sample in r. Malformed lines are counted in the
// returned Stats and otherwise ignored.
func ReadSamples(r io.Reader) ([]gaze.Sample, Stats, error) {
	src := NewSource(io.NopCloser(r))
	out, errc := src.Stream(context.Background(), 0)

	var samples []gaze.Sample
	for sample := range out {
		samples = append(samples, sample)
	}
	return samples, src.Stats(), <-errc
}

// ReadCalibration parses every "target,x,y" line in r. Unlike samples, a
// malformed calibration line fails the whole read.
func ReadCalibration(r io.Reader) ([]calibration.Sample, error) {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var out []calibration.Sample
	for n := 1; scan.Scan(); n++ {
		s, err := ParseCalibration(scan.Text())
		if errors.Is(err, ErrSkipLine) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("calibration line %d: %w", n, err)
		}
		out = append(out, s)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}
	return out, nil
}
