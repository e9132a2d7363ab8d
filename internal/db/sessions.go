package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/focus.report/internal/focus"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/session"
)

const sessionColumns = `session_id, started_at, finished_at, sample_count, calibration_id,
	focus_score, gaze_stability, screen_engagement, blink_pattern, saccade_quality,
	temporal_consistency, session_duration, on_screen_ratio, longest_streak,
	off_screen_glances, fixation_count, avg_fixation_duration, max_fixation_duration,
	blink_count, double_blink_count, blink_rate, saccade_count, large_saccade_count,
	avg_saccade_amplitude`

// SaveSession stores a finished session and all of its events. Saving the
// same session ID again replaces the earlier copy.
func (db *DB) SaveSession(ctx context.Context, sum session.Summary) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sum.ID); err != nil {
		return fmt.Errorf("replace session %s: %w", sum.ID, err)
	}
	for _, table := range []string{"fixations", "saccades", "blinks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, sum.ID); err != nil {
			return fmt.Errorf("replace %s for %s: %w", table, sum.ID, err)
		}
	}

	m := sum.Metrics
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, formatTime(sum.StartedAt), formatTime(sum.FinishedAt), sum.SampleCount, nullString(sum.CalibrationID),
		m.FocusScore, m.SubScores.GazeStability, m.SubScores.ScreenEngagement, m.SubScores.BlinkPattern, m.SubScores.SaccadeQuality,
		m.SubScores.TemporalConsistency, m.SessionDuration, m.OnScreenRatio, m.LongestStreak,
		m.OffScreenGlances, m.FixationCount, m.AverageFixationDuration, m.MaxFixationDuration,
		m.BlinkCount, m.DoubleBlinkCount, m.BlinkRate, m.SaccadeCount, m.LargeSaccadeCount,
		m.AverageSaccadeAmplitude,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sum.ID, err)
	}

	for i, f := range sum.Fixations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fixations (session_id, seq, center_x, center_y, start_time, end_time, sample_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sum.ID, i, f.Center.X, f.Center.Y, f.StartTime, f.EndTime, f.SampleCount,
		); err != nil {
			return fmt.Errorf("insert fixation %d: %w", i, err)
		}
	}
	for i, s := range sum.Saccades {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO saccades (session_id, seq, start_x, start_y, end_x, end_y,
				amplitude_degrees, start_time, duration, direction_radians, saccade_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.ID, i, s.StartPoint.X, s.StartPoint.Y, s.EndPoint.X, s.EndPoint.Y,
			s.AmplitudeDegrees, s.StartTime, s.Duration, s.DirectionRadians, string(s.Type),
		); err != nil {
			return fmt.Errorf("insert saccade %d: %w", i, err)
		}
	}
	for i, b := range sum.Blinks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blinks (session_id, seq, onset, duration, is_double) VALUES (?, ?, ?, ?, ?)`,
			sum.ID, i, b.Timestamp, b.Duration, b.IsDoubleBlink,
		); err != nil {
			return fmt.Errorf("insert blink %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", sum.ID, err)
	}
	db.logf("saved session %s (%d fixations, %d saccades, %d blinks)",
		sum.ID, len(sum.Fixations), len(sum.Saccades), len(sum.Blinks))
	return nil
}

// ListSessions returns the most recently started sessions, newest first,
// without their event lists. limit <= 0 means 100.
func (db *DB) ListSessions(ctx context.Context, limit int) ([]session.Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Summary
	for rows.Next() {
		sum, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetSession loads a session with its events. It returns ErrNotFound when
// no session has that ID.
func (db *DB) GetSession(ctx context.Context, id string) (session.Summary, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	sum, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Summary{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return session.Summary{}, err
	}

	if sum.Fixations, err = db.fixations(ctx, id); err != nil {
		return session.Summary{}, err
	}
	if sum.Saccades, err = db.saccades(ctx, id); err != nil {
		return session.Summary{}, err
	}
	if sum.Blinks, err = db.blinks(ctx, id); err != nil {
		return session.Summary{}, err
	}
	return sum, nil
}

// DeleteSession removes a session and its events.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (session.Summary, error) {
	var (
		sum               session.Summary
		m                 focus.SessionMetrics
		started, finished string
		calibrationID     sql.NullString
	)
	err := s.Scan(
		&sum.ID, &started, &finished, &sum.SampleCount, &calibrationID,
		&m.FocusScore, &m.SubScores.GazeStability, &m.SubScores.ScreenEngagement, &m.SubScores.BlinkPattern, &m.SubScores.SaccadeQuality,
		&m.SubScores.TemporalConsistency, &m.SessionDuration, &m.OnScreenRatio, &m.LongestStreak,
		&m.OffScreenGlances, &m.FixationCount, &m.AverageFixationDuration, &m.MaxFixationDuration,
		&m.BlinkCount, &m.DoubleBlinkCount, &m.BlinkRate, &m.SaccadeCount, &m.LargeSaccadeCount,
		&m.AverageSaccadeAmplitude,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sum, err
		}
		return sum, fmt.Errorf("scan session: %w", err)
	}
	if sum.StartedAt, err = parseTime(started); err != nil {
		return sum, err
	}
	if sum.FinishedAt, err = parseTime(finished); err != nil {
		return sum, err
	}
	sum.CalibrationID = calibrationID.String
	sum.Metrics = m
	return sum, nil
}

func (db *DB) fixations(ctx context.Context, id string) ([]gaze.Fixation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT center_x, center_y, start_time, end_time, sample_count
		FROM fixations WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query fixations: %w", err)
	}
	defer rows.Close()

	out := []gaze.Fixation{}
	for rows.Next() {
		var f gaze.Fixation
		if err := rows.Scan(&f.Center.X, &f.Center.Y, &f.StartTime, &f.EndTime, &f.SampleCount); err != nil {
			return nil, fmt.Errorf("scan fixation: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (db *DB) saccades(ctx context.Context, id string) ([]gaze.Saccade, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT start_x, start_y, end_x, end_y, amplitude_degrees, start_time, duration, direction_radians, saccade_type
		FROM saccades WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query saccades: %w", err)
	}
	defer rows.Close()

	out := []gaze.Saccade{}
	for rows.Next() {
		var (
			s   gaze.Saccade
			typ string
		)
		if err := rows.Scan(&s.StartPoint.X, &s.StartPoint.Y, &s.EndPoint.X, &s.EndPoint.Y,
			&s.AmplitudeDegrees, &s.StartTime, &s.Duration, &s.DirectionRadians, &typ); err != nil {
			return nil, fmt.Errorf("scan saccade: %w", err)
		}
		s.Type = gaze.SaccadeType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) blinks(ctx context.Context, id string) ([]gaze.BlinkEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT onset, duration, is_double FROM blinks WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query blinks: %w", err)
	}
	defer rows.Close()

	out := []gaze.BlinkEvent{}
	for rows.Next() {
		var b gaze.BlinkEvent
		if err := rows.Scan(&b.Timestamp, &b.Duration, &b.IsDoubleBlink); err != nil {
			return nil, fmt.Errorf("scan blink: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
