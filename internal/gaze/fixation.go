package gaze

import "github.com/banshee-data/focus.report/internal/timeutil"

// FixationDetector clusters stationary gaze samples into fixations using a
// velocity threshold (I-VT). Samples below the threshold accumulate in a
// pending cluster; the first sample at or above it closes the cluster.
type FixationDetector struct {
	config      FixationConfig
	minDuration float64 // seconds

	// Last accepted sample, used for velocity.
	prev     Point
	prevTime float64
	hasPrev  bool

	// Pending cluster of below-threshold samples.
	cluster []Sample

	// Append-only list of finalized fixations. Only the last element may
	// still change, and only by merging.
	fixations []Fixation
}

// NewFixationDetector creates a fixation detector with the given configuration.
func NewFixationDetector(cfg FixationConfig) *FixationDetector {
	return &FixationDetector{
		config:      cfg,
		minDuration: timeutil.Seconds(cfg.MinimumDuration),
	}
}

// Process feeds one smoothed gaze sample to the detector. When the sample
// closes a cluster long enough to count, the finalized (possibly merged)
// fixation is returned with ok set. A merge leaves Count unchanged.
func (d *FixationDetector) Process(point Point, timestamp float64) (fix Fixation, ok bool) {
	if !d.hasPrev {
		d.prev, d.prevTime, d.hasPrev = point, timestamp, true
		d.cluster = append(d.cluster, Sample{Point: point, Timestamp: timestamp})
		return Fixation{}, false
	}

	dt := timestamp - d.prevTime
	if dt <= 0 {
		return Fixation{}, false
	}
	velocity := d.prev.Distance(point) / dt
	d.prev, d.prevTime = point, timestamp

	if velocity < d.config.VelocityThreshold {
		d.cluster = append(d.cluster, Sample{Point: point, Timestamp: timestamp})
		return Fixation{}, false
	}

	// Saccadic sample: close the pending cluster. The sample itself belongs
	// to the movement and joins no cluster.
	fix, ok = d.finalizeCluster()
	d.cluster = d.cluster[:0]
	return fix, ok
}

// Current returns a live, non-final preview of the pending cluster. It is
// advisory only: the preview may still be dropped as too short or merged.
func (d *FixationDetector) Current() (Fixation, bool) {
	if len(d.cluster) < 2 {
		return Fixation{}, false
	}
	return clusterFixation(d.cluster), true
}

// Count returns the number of finalized fixations.
func (d *FixationDetector) Count() int {
	return len(d.fixations)
}

// Fixations returns a copy of the finalized fixations.
func (d *FixationDetector) Fixations() []Fixation {
	out := make([]Fixation, len(d.fixations))
	copy(out, d.fixations)
	return out
}

// Finalize flushes any pending cluster (used at end of stream) and returns
// the full fixation list.
func (d *FixationDetector) Finalize() []Fixation {
	d.finalizeCluster()
	d.cluster = d.cluster[:0]
	return d.Fixations()
}

// Reset clears all detection state and the fixation list.
func (d *FixationDetector) Reset() {
	d.prev = Point{}
	d.prevTime = 0
	d.hasPrev = false
	d.cluster = nil
	d.fixations = nil
}

// finalizeCluster converts the pending cluster into a fixation if it has at
// least two samples spanning MinimumDuration, merging it into the previous
// fixation when their centers are within MergeRadius. Too-short clusters are
// dropped silently.
func (d *FixationDetector) finalizeCluster() (Fixation, bool) {
	if len(d.cluster) < 2 {
		return Fixation{}, false
	}
	fix := clusterFixation(d.cluster)
	if fix.Duration() < d.minDuration {
		return Fixation{}, false
	}

	if n := len(d.fixations); n > 0 {
		last := d.fixations[n-1]
		if last.Center.Distance(fix.Center) <= d.config.MergeRadius {
			d.fixations[n-1] = mergeFixations(last, fix)
			return d.fixations[n-1], true
		}
	}
	d.fixations = append(d.fixations, fix)
	return fix, true
}

// clusterFixation summarises a cluster by centroid and time span.
func clusterFixation(cluster []Sample) Fixation {
	var sx, sy float64
	for _, s := range cluster {
		sx += s.Point.X
		sy += s.Point.Y
	}
	n := float64(len(cluster))
	return Fixation{
		Center:      Point{X: sx / n, Y: sy / n},
		StartTime:   cluster[0].Timestamp,
		EndTime:     cluster[len(cluster)-1].Timestamp,
		SampleCount: len(cluster),
	}
}

// mergeFixations combines two fixations with a sample-count-weighted centroid.
func mergeFixations(a, b Fixation) Fixation {
	total := a.SampleCount + b.SampleCount
	wa := float64(a.SampleCount) / float64(total)
	wb := float64(b.SampleCount) / float64(total)
	return Fixation{
		Center: Point{
			X: a.Center.X*wa + b.Center.X*wb,
			Y: a.Center.Y*wa + b.Center.Y*wb,
		},
		StartTime:   min(a.StartTime, b.StartTime),
		EndTime:     max(a.EndTime, b.EndTime),
		SampleCount: total,
	}
}
