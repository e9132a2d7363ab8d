// Package focus reduces gaze events to session metrics and a 0-100 focus
// score.
//
// The score combines five sub-scores, each in [0, 100]:
//
//   - gaze stability: how close the mean fixation duration is to 300ms;
//   - screen engagement: the share of samples that landed on screen;
//   - blink pattern: how close the blink rate is to 17.5 per minute;
//   - saccade quality: few large saccades relative to fixations;
//   - temporal consistency: the longest on-screen streak as a share of the session.
//
// Everything here is a pure function of its inputs. Nothing is retained
// between calls.
package focus
