// Package gaze owns the streaming gaze-event layer of the focus pipeline.
//
// Responsibilities: temporal smoothing of raw gaze points, velocity-threshold
// (I-VT) fixation detection with spatial merging, saccade detection in visual
// degrees, and dual-channel blink detection with a rolling blink rate.
// Key types: Point, Sample, Fixation, Saccade, BlinkEvent.
//
// Every component is single-writer and synchronous: one Process/Smooth call
// per incoming sample, samples in strictly increasing timestamp order.
// Samples with a non-positive time step are dropped rather than corrupting
// state. Callers that read from another goroutine must serialize access or
// use the copies returned by the query methods.
//
// Dependency rule: gaze depends only on units and config. No calibration,
// scoring, storage or I/O code is allowed in this package.
package gaze
