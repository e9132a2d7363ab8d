package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/db"
	"github.com/banshee-data/focus.report/internal/httputil"
	"github.com/banshee-data/focus.report/internal/ingest"
)

// CalibrationRequest is the JSON body of POST /api/calibrations. Zero layout
// and empty mode use the configured defaults.
type CalibrationRequest struct {
	Layout  calibration.Layout   `json:"layout,omitempty"`
	Mode    calibration.Mode     `json:"mode,omitempty"`
	Samples []calibration.Sample `json:"samples"`
}

// CalibrationResponse is returned by POST /api/calibrations.
type CalibrationResponse struct {
	calibration.Result
	Accepted  int  `json:"accepted"`
	Persisted bool `json:"persisted"`
}

// fitCalibration fits a transform from per-target samples. Non-JSON bodies
// are "target,x,y" lines with ?layout= and ?mode= query overrides.
func (s *Server) fitCalibration(w http.ResponseWriter, r *http.Request) {
	var req CalibrationRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	} else {
		body, err := httputil.ReadBody(w, r)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if req.Samples, err = ingest.ReadCalibration(bytes.NewReader(body)); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		q := r.URL.Query()
		switch q.Get("layout") {
		case "":
		case "5":
			req.Layout = calibration.LayoutFivePoint
		case "9":
			req.Layout = calibration.LayoutNinePoint
		default:
			httputil.BadRequest(w, "invalid 'layout' parameter: expected 5 or 9")
			return
		}
		req.Mode = calibration.Mode(q.Get("mode"))
	}

	cfg := s.calib
	if req.Layout != 0 {
		if req.Layout != calibration.LayoutFivePoint && req.Layout != calibration.LayoutNinePoint {
			httputil.BadRequest(w, fmt.Sprintf("invalid layout %d: expected 5 or 9", req.Layout))
			return
		}
		cfg.Layout = req.Layout
	}
	switch req.Mode {
	case "":
	case calibration.ModeAuto, calibration.ModeAffine, calibration.ModePolynomial:
		cfg.Mode = req.Mode
	default:
		httputil.BadRequest(w, fmt.Sprintf("invalid mode %q", req.Mode))
		return
	}

	engine := calibration.NewEngine(cfg)
	engine.Start()
	accepted := 0
	for _, sample := range req.Samples {
		if engine.Add(sample) {
			accepted++
		}
	}
	res := engine.Compute()
	resp := CalibrationResponse{Result: res, Accepted: accepted}

	if !res.Usable() {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if s.store != nil {
		if err := s.store.SaveCalibration(r.Context(), res); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to save calibration: %v", err))
			return
		}
		resp.Persisted = true
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) getCalibration(w http.ResponseWriter, r *http.Request) {
	s.writeCalibration(w, r, r.PathValue("id"))
}

func (s *Server) latestCalibration(w http.ResponseWriter, r *http.Request) {
	s.writeCalibration(w, r, LatestCalibrationID)
}

func (s *Server) writeCalibration(w http.ResponseWriter, r *http.Request, id string) {
	if !s.requireStore(w) {
		return
	}
	res, err := s.lookupCalibration(r, id)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load calibration: %v", err))
		return
	}
	httputil.WriteJSONOK(w, res)
}

func (s *Server) lookupCalibration(r *http.Request, id string) (calibration.Result, error) {
	return FindCalibration(r.Context(), s.store, id)
}

// FindCalibration returns the calibration with id, or the most recent one
// when id is LatestCalibrationID.
func FindCalibration(ctx context.Context, store CalibrationStore, id string) (calibration.Result, error) {
	if id == LatestCalibrationID {
		return store.LatestCalibration(ctx)
	}
	return store.GetCalibration(ctx, id)
}
