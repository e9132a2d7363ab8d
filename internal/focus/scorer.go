package focus

import (
	"math"

	"github.com/banshee-data/focus.report/internal/gaze"
)

// Scoring constants.
const (
	IdealFixationDuration = 0.300 // seconds
	FixationDurationSigma = 0.150 // seconds
	IdealBlinkRate        = 17.5  // blinks per minute
	BlinkRateSigma        = 5.0   // blinks per minute

	// NeutralScore is used for sub-scores with no evidence either way.
	NeutralScore = 50.0

	MaxScore = 100
)

// SubScores holds the five component scores, each in [0, 100].
type SubScores struct {
	GazeStability       float64 `json:"gaze_stability"`
	ScreenEngagement    float64 `json:"screen_engagement"`
	BlinkPattern        float64 `json:"blink_pattern"`
	SaccadeQuality      float64 `json:"saccade_quality"`
	TemporalConsistency float64 `json:"temporal_consistency"`
}

// Inputs are the session-level observations the score is computed from.
// Durations are in seconds.
type Inputs struct {
	Fixations       []gaze.Fixation
	Saccades        []gaze.Saccade
	Blinks          []gaze.BlinkEvent
	OnScreenRatio   float64
	SessionDuration float64
	LongestStreak   float64
}

// empty reports whether there is no evidence at all to score.
func (in Inputs) empty() bool {
	return len(in.Fixations) == 0 && len(in.Saccades) == 0 && len(in.Blinks) == 0 &&
		!(in.SessionDuration > 0) && !(in.OnScreenRatio > 0)
}

// Scorer computes focus scores with a fixed set of weights.
type Scorer struct {
	weights Weights
}

// NewScorer returns a scorer using w.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted focus score, rounded and clamped to [0, 100].
// A session with no events, no duration and no on-screen time scores 0.
func (s *Scorer) Score(in Inputs) int {
	if in.empty() {
		return 0
	}
	total := s.weights.combine(ComputeSubScores(in))
	if math.IsNaN(total) {
		return 0
	}
	return int(clamp(math.Round(total), 0, MaxScore))
}

// ComputeScore scores a session with DefaultWeights.
func ComputeScore(fixations []gaze.Fixation, saccades []gaze.Saccade, blinks []gaze.BlinkEvent,
	onScreenRatio, sessionDuration, longestStreak float64) int {
	return NewScorer(DefaultWeights()).Score(Inputs{
		Fixations:       fixations,
		Saccades:        saccades,
		Blinks:          blinks,
		OnScreenRatio:   onScreenRatio,
		SessionDuration: sessionDuration,
		LongestStreak:   longestStreak,
	})
}

// ComputeSubScores returns all five sub-scores for in.
func ComputeSubScores(in Inputs) SubScores {
	return SubScores{
		GazeStability:       GazeStabilityScore(in.Fixations),
		ScreenEngagement:    ScreenEngagementScore(in.OnScreenRatio),
		BlinkPattern:        BlinkPatternScore(len(in.Blinks), in.SessionDuration),
		SaccadeQuality:      SaccadeQualityScore(in.Saccades, len(in.Fixations)),
		TemporalConsistency: TemporalConsistencyScore(in.LongestStreak, in.SessionDuration),
	}
}

// GazeStabilityScore peaks when the mean fixation duration is 300ms. It is 0
// with no fixations.
func GazeStabilityScore(fixations []gaze.Fixation) float64 {
	if len(fixations) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fixations {
		sum += f.Duration()
	}
	mean := sum / float64(len(fixations))
	return gaussianPeak(mean, IdealFixationDuration, FixationDurationSigma)
}

// ScreenEngagementScore is the on-screen ratio as a percentage.
func ScreenEngagementScore(onScreenRatio float64) float64 {
	return clamp(onScreenRatio, 0, 1) * 100
}

// BlinkPatternScore peaks at 17.5 blinks per minute. It is neutral when the
// session has no duration.
func BlinkPatternScore(blinkCount int, sessionDuration float64) float64 {
	if !(sessionDuration > 0) {
		return NeutralScore
	}
	rate := float64(blinkCount) / sessionDuration * 60
	return gaussianPeak(rate, IdealBlinkRate, BlinkRateSigma)
}

// SaccadeQualityScore rewards a high share of fixations and penalises large
// saccades, both measured over all fixation and saccade events. It is neutral
// when there are no events.
func SaccadeQualityScore(saccades []gaze.Saccade, fixationCount int) float64 {
	total := len(saccades) + fixationCount
	if total == 0 {
		return NeutralScore
	}
	large := 0
	for _, s := range saccades {
		if s.Type == gaze.SaccadeLarge {
			large++
		}
	}
	largeFraction := float64(large) / float64(total)
	fixationRatio := float64(fixationCount) / float64(total)
	return clamp(100-60*largeFraction+40*fixationRatio-40, 0, 100)
}

// TemporalConsistencyScore is the longest on-screen streak as a share of the
// session. It is 0 when the session has no duration.
func TemporalConsistencyScore(longestStreak, sessionDuration float64) float64 {
	if !(sessionDuration > 0) {
		return 0
	}
	return clamp(longestStreak/sessionDuration, 0, 1) * 100
}

// gaussianPeak returns 100 at x == mean, falling off with a normal profile.
func gaussianPeak(x, mean, sigma float64) float64 {
	z := (x - mean) / sigma
	v := math.Exp(-0.5*z*z) * 100
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
