package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/focus.report/internal/calibration"
)

// SaveCalibration stores a calibration result keyed by its ID. Only usable
// results are accepted.
func (db *DB) SaveCalibration(ctx context.Context, res calibration.Result) error {
	if !res.Usable() {
		return fmt.Errorf("calibration %s is %s and cannot be stored", res.ID, res.Status)
	}
	transform, err := json.Marshal(res.Transform)
	if err != nil {
		return fmt.Errorf("encode transform: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO calibrations
			(calibration_id, status, layout, targets, model, accuracy, transform_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ID, string(res.Status), int(res.Layout), res.Targets, string(res.Transform.Model),
		res.Transform.Accuracy, string(transform),
	)
	if err != nil {
		return fmt.Errorf("insert calibration %s: %w", res.ID, err)
	}
	return nil
}

// GetCalibration loads a stored calibration. It returns ErrNotFound when no
// calibration has that ID.
func (db *DB) GetCalibration(ctx context.Context, id string) (calibration.Result, error) {
	row := db.QueryRowContext(ctx,
		`SELECT calibration_id, status, layout, targets, transform_json
		FROM calibrations WHERE calibration_id = ?`, id)
	res, err := scanCalibration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return calibration.Result{}, fmt.Errorf("calibration %s: %w", id, ErrNotFound)
	}
	return res, err
}

// LatestCalibration returns the most recently stored calibration, or
// ErrNotFound when there is none.
func (db *DB) LatestCalibration(ctx context.Context) (calibration.Result, error) {
	row := db.QueryRowContext(ctx,
		`SELECT calibration_id, status, layout, targets, transform_json
		FROM calibrations ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	res, err := scanCalibration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return calibration.Result{}, fmt.Errorf("latest calibration: %w", ErrNotFound)
	}
	return res, err
}

func scanCalibration(s scanner) (calibration.Result, error) {
	var (
		res       calibration.Result
		status    string
		layout    int
		transform string
	)
	if err := s.Scan(&res.ID, &status, &layout, &res.Targets, &transform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return res, err
		}
		return res, fmt.Errorf("scan calibration: %w", err)
	}
	res.Status = calibration.Status(status)
	res.Layout = calibration.Layout(layout)
	if err := json.Unmarshal([]byte(transform), &res.Transform); err != nil {
		return res, fmt.Errorf("decode transform for %s: %w", res.ID, err)
	}
	return res, nil
}
