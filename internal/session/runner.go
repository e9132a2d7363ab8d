package session

import (
	"context"

	"github.com/banshee-data/focus.report/internal/gaze"
)

// Run feeds samples from in through p until in is closed or ctx is done,
// calling onUpdate (if non-nil) after each sample. Run is the single consumer
// of p; no other goroutine may use p while it runs.
//
// The summary is always returned. The error is ctx.Err() when the context
// ended the session and nil when the input closed.
func Run(ctx context.Context, p *Pipeline, in <-chan gaze.Sample, onUpdate func(Update)) (Summary, error) {
	for {
		select {
		case <-ctx.Done():
			return p.Finish(), ctx.Err()
		case s, ok := <-in:
			if !ok {
				return p.Finish(), nil
			}
			u := p.Process(s)
			if onUpdate != nil {
				onUpdate(u)
			}
		}
	}
}

// Replay processes a recorded batch of samples and returns the summary.
func Replay(cfg Config, samples []gaze.Sample, opts ...Option) Summary {
	p := NewPipeline(cfg, opts...)
	for _, s := range samples {
		p.Process(s)
	}
	return p.Finish()
}
