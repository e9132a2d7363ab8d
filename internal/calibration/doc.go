// Package calibration fits a correction from raw gaze estimates to true
// on-screen positions.
//
// A calibration run shows the user a fixed set of targets (5 or 9 positions in
// normalized 0..1 screen coordinates) and collects raw gaze points while each
// target is displayed. Compute averages each target's samples into one measured
// centroid and fits either an affine model or a second-order polynomial by
// least squares.
//
// Responsibilities:
//   - Target layouts and normalized-to-screen conversion.
//   - Per-target sample collection with a per-target cap.
//   - Affine and polynomial fitting, including degenerate-case fallbacks.
//   - The immutable, JSON-serialisable Transform and its Apply method.
//
// Key types: Engine, Result, Status, Transform, Layout.
//
// Dependency rule: calibration depends on gaze (for Point) and config. It does
// not know about sessions, storage or transport.
package calibration
