package focus

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/focus.report/internal/gaze"
)

// ScreenSample records whether the gaze landed on screen at Timestamp.
type ScreenSample struct {
	Timestamp float64 `json:"t"`
	OnScreen  bool    `json:"on_screen"`
}

// SessionMetrics summarises a session. Durations are in seconds.
type SessionMetrics struct {
	FocusScore int       `json:"focus_score"`
	SubScores  SubScores `json:"sub_scores"`

	SessionDuration  float64 `json:"session_duration"`
	OnScreenRatio    float64 `json:"on_screen_ratio"`
	LongestStreak    float64 `json:"longest_streak"`
	OffScreenGlances int     `json:"off_screen_glances"`

	FixationCount           int     `json:"fixation_count"`
	AverageFixationDuration float64 `json:"average_fixation_duration"`
	MaxFixationDuration     float64 `json:"max_fixation_duration"`

	BlinkCount       int     `json:"blink_count"`
	DoubleBlinkCount int     `json:"double_blink_count"`
	BlinkRate        float64 `json:"blink_rate"` // per minute over the whole session

	SaccadeCount            int     `json:"saccade_count"`
	LargeSaccadeCount       int     `json:"large_saccade_count"`
	AverageSaccadeAmplitude float64 `json:"average_saccade_amplitude"` // degrees
}

// ComputeMetrics reduces screen samples and event lists to SessionMetrics,
// scored with DefaultWeights.
func ComputeMetrics(samples []ScreenSample, fixations []gaze.Fixation, saccades []gaze.Saccade, blinks []gaze.BlinkEvent) SessionMetrics {
	return NewScorer(DefaultWeights()).Metrics(samples, fixations, saccades, blinks)
}

// Metrics reduces screen samples and event lists to SessionMetrics. Samples
// must be in time order.
func (s *Scorer) Metrics(samples []ScreenSample, fixations []gaze.Fixation, saccades []gaze.Saccade, blinks []gaze.BlinkEvent) SessionMetrics {
	m := SessionMetrics{
		FixationCount: len(fixations),
		BlinkCount:    len(blinks),
		SaccadeCount:  len(saccades),
	}

	m.SessionDuration, m.OnScreenRatio, m.LongestStreak, m.OffScreenGlances = screenStats(samples)

	if len(fixations) > 0 {
		durations := make([]float64, len(fixations))
		for i, f := range fixations {
			durations[i] = f.Duration()
		}
		m.AverageFixationDuration = stat.Mean(durations, nil)
		m.MaxFixationDuration = floats.Max(durations)
	}

	for _, b := range blinks {
		if b.IsDoubleBlink {
			m.DoubleBlinkCount++
		}
	}
	if m.SessionDuration > 0 {
		m.BlinkRate = float64(len(blinks)) / m.SessionDuration * 60
	}

	if len(saccades) > 0 {
		amplitudes := make([]float64, len(saccades))
		for i, sac := range saccades {
			amplitudes[i] = sac.AmplitudeDegrees
			if sac.Type == gaze.SaccadeLarge {
				m.LargeSaccadeCount++
			}
		}
		m.AverageSaccadeAmplitude = stat.Mean(amplitudes, nil)
	}

	in := Inputs{
		Fixations:       fixations,
		Saccades:        saccades,
		Blinks:          blinks,
		OnScreenRatio:   m.OnScreenRatio,
		SessionDuration: m.SessionDuration,
		LongestStreak:   m.LongestStreak,
	}
	m.SubScores = ComputeSubScores(in)
	m.FocusScore = s.Score(in)
	return m
}

// screenStats derives the session span, on-screen ratio (by sample count),
// longest on-screen streak and the number of on-to-off transitions.
//
// A streak runs from its first on-screen sample to the sample that ends it,
// or to the last sample when the session ends on screen.
func screenStats(samples []ScreenSample) (duration, ratio, longest float64, glances int) {
	if len(samples) == 0 {
		return 0, 0, 0, 0
	}
	duration = samples[len(samples)-1].Timestamp - samples[0].Timestamp
	if duration < 0 {
		duration = 0
	}

	on := 0
	inStreak := false
	var streakStart float64
	for i, s := range samples {
		if s.OnScreen {
			on++
			if !inStreak {
				inStreak = true
				streakStart = s.Timestamp
			}
			continue
		}
		if inStreak {
			longest = max(longest, s.Timestamp-streakStart)
			inStreak = false
		}
		if i > 0 && samples[i-1].OnScreen {
			glances++
		}
	}
	if inStreak {
		longest = max(longest, samples[len(samples)-1].Timestamp-streakStart)
	}

	ratio = float64(on) / float64(len(samples))
	return duration, ratio, longest, glances
}
