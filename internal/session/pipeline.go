// Package session wires the gaze detectors, optional calibration mapping and
// the focus scorer into one single-writer pipeline per recording session.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/focus.report/internal/focus"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/monitoring"
	"github.com/banshee-data/focus.report/internal/timeutil"
)

// Mapper corrects raw gaze points before smoothing. calibration.Transform
// satisfies it.
type Mapper interface {
	Apply(p gaze.Point) gaze.Point
}

// Update is the result of processing one sample. Event pointers are nil when
// the sample produced no event of that kind.
type Update struct {
	Timestamp float64    `json:"t"`
	Smoothed  gaze.Point `json:"smoothed"`
	OnScreen  bool       `json:"on_screen"`

	// Dropped is set when the sample was ignored because its timestamp did
	// not advance.
	Dropped bool `json:"dropped,omitempty"`

	Fixation *gaze.Fixation   `json:"fixation,omitempty"`
	Saccade  *gaze.Saccade    `json:"saccade,omitempty"`
	Blink    *gaze.BlinkEvent `json:"blink,omitempty"`

	// FixationMerged is set when Fixation replaced the previous finalized
	// fixation instead of appending a new one.
	FixationMerged bool `json:"fixation_merged,omitempty"`

	// Preview is the non-final fixation being accumulated. Advisory only.
	Preview *gaze.Fixation `json:"preview,omitempty"`

	// Score is set every ScoreInterval of sample time.
	Score *int `json:"score,omitempty"`
}

// Snapshot is an immutable copy of the pipeline's accumulated state.
type Snapshot struct {
	ID          string               `json:"id"`
	SampleCount int                  `json:"sample_count"`
	Fixations   []gaze.Fixation      `json:"fixations"`
	Saccades    []gaze.Saccade       `json:"saccades"`
	Blinks      []gaze.BlinkEvent    `json:"blinks"`
	BlinkRate   float64              `json:"blink_rate"` // rolling, per minute
	Metrics     focus.SessionMetrics `json:"metrics"`
}

// Summary is the final result of a session.
type Summary struct {
	ID            string               `json:"id"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	SampleCount   int                  `json:"sample_count"`
	CalibrationID string               `json:"calibration_id,omitempty"`
	Metrics       focus.SessionMetrics `json:"metrics"`
	Fixations     []gaze.Fixation      `json:"fixations"`
	Saccades      []gaze.Saccade       `json:"saccades"`
	Blinks        []gaze.BlinkEvent    `json:"blinks"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMapper applies m to every raw point before smoothing.
func WithMapper(m Mapper) Option {
	return func(p *Pipeline) { p.mapper = m }
}

// WithCalibrationID records which stored calibration the mapper came from.
func WithCalibrationID(id string) Option {
	return func(p *Pipeline) { p.calibrationID = id }
}

// WithClock overrides the wall clock used for StartedAt and FinishedAt.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(p *Pipeline) { p.id = id }
}

// Pipeline processes one session's samples in timestamp order. It is not
// safe for concurrent use; feed it from a single goroutine (see Run).
type Pipeline struct {
	cfg           Config
	id            string
	calibrationID string
	mapper        Mapper
	clock         timeutil.Clock
	startedAt     time.Time
	logf          func(format string, v ...interface{})

	smoother  *gaze.Smoother
	fixations *gaze.FixationDetector
	saccades  *gaze.SaccadeDetector
	blinks    *gaze.BlinkDetector
	scorer    *focus.Scorer

	screen        []focus.ScreenSample
	lastTimestamp float64
	hasLast       bool
	nextScoreAt   float64
}

// NewPipeline creates a pipeline with a fresh session ID.
func NewPipeline(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		id:        uuid.NewString(),
		clock:     timeutil.RealClock{},
		logf:      monitoring.Prefixed("session"),
		smoother:  gaze.NewSmoother(cfg.Smoother),
		fixations: gaze.NewFixationDetector(cfg.Fixation),
		saccades:  gaze.NewSaccadeDetector(cfg.Saccade),
		blinks:    gaze.NewBlinkDetector(cfg.Blink),
		scorer:    focus.NewScorer(cfg.Weights),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.startedAt = p.clock.Now()
	return p
}

// ID returns the session ID.
func (p *Pipeline) ID() string {
	return p.id
}

// Process runs one sample through mapping, smoothing and every detector.
func (p *Pipeline) Process(s gaze.Sample) Update {
	u := Update{Timestamp: s.Timestamp}

	// Step 1: enforce strictly increasing timestamps.
	if p.hasLast && s.Timestamp <= p.lastTimestamp {
		u.Dropped = true
		return u
	}
	if !p.hasLast {
		p.nextScoreAt = s.Timestamp + timeutil.Seconds(p.cfg.ScoreInterval)
	}
	p.lastTimestamp = s.Timestamp
	p.hasLast = true

	// Step 2: calibrate and record on/off screen. Tracking loss arrives as a
	// non-finite point and counts as off screen.
	point := s.Point
	if p.mapper != nil && point.IsFinite() {
		point = p.mapper.Apply(point)
	}
	u.OnScreen = p.cfg.Screen.Contains(point)
	p.screen = append(p.screen, focus.ScreenSample{Timestamp: s.Timestamp, OnScreen: u.OnScreen})

	// Step 3: smoothing and movement detectors, only with a usable point.
	if point.IsFinite() {
		u.Smoothed = p.smoother.Smooth(point, s.Timestamp)
		before := p.fixations.Count()
		if fix, ok := p.fixations.Process(u.Smoothed, s.Timestamp); ok {
			u.Fixation = &fix
			u.FixationMerged = p.fixations.Count() == before
		}
		if sac, ok := p.saccades.Process(u.Smoothed, s.Timestamp); ok {
			u.Saccade = &sac
		}
		if preview, ok := p.fixations.Current(); ok {
			u.Preview = &preview
		}
	}

	// Step 4: blinks run on closure intensities regardless of gaze.
	if ev, ok := p.blinks.Process(s.LeftClosure, s.RightClosure, s.Timestamp); ok {
		u.Blink = &ev
	}

	// Step 5: periodic live score over the finalized events so far.
	if p.cfg.ScoreInterval > 0 && s.Timestamp >= p.nextScoreAt {
		score := p.metrics(p.fixations.Fixations()).FocusScore
		u.Score = &score
		p.nextScoreAt = s.Timestamp + timeutil.Seconds(p.cfg.ScoreInterval)
	}
	return u
}

// Snapshot returns copies of the accumulated events and current metrics. The
// pending fixation cluster is not included.
func (p *Pipeline) Snapshot() Snapshot {
	fixations := p.fixations.Fixations()
	return Snapshot{
		ID:          p.id,
		SampleCount: len(p.screen),
		Fixations:   fixations,
		Saccades:    p.saccades.Saccades(),
		Blinks:      p.blinks.Events(),
		BlinkRate:   p.blinks.BlinksPerMinute(),
		Metrics:     p.metrics(fixations),
	}
}

// Finish flushes the pending fixation and returns the session summary.
func (p *Pipeline) Finish() Summary {
	fixations := p.fixations.Finalize()
	sum := Summary{
		ID:            p.id,
		StartedAt:     p.startedAt,
		FinishedAt:    p.clock.Now(),
		SampleCount:   len(p.screen),
		CalibrationID: p.calibrationID,
		Metrics:       p.metrics(fixations),
		Fixations:     fixations,
		Saccades:      p.saccades.Saccades(),
		Blinks:        p.blinks.Events(),
	}
	p.logf("session %s finished: %d samples, %d fixations, %d saccades, %d blinks, score %d",
		sum.ID, sum.SampleCount, len(sum.Fixations), len(sum.Saccades), len(sum.Blinks), sum.Metrics.FocusScore)
	return sum
}

// Reset discards all state and starts a new session with a new ID.
func (p *Pipeline) Reset() {
	p.smoother.Reset()
	p.fixations.Reset()
	p.saccades.Reset()
	p.blinks.Reset()
	p.screen = nil
	p.lastTimestamp = 0
	p.hasLast = false
	p.nextScoreAt = 0
	p.id = uuid.NewString()
	p.startedAt = p.clock.Now()
}

func (p *Pipeline) metrics(fixations []gaze.Fixation) focus.SessionMetrics {
	return p.scorer.Metrics(p.screen, fixations, p.saccades.Saccades(), p.blinks.Events())
}
