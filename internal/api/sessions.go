package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/banshee-data/focus.report/internal/db"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/httputil"
	"github.com/banshee-data/focus.report/internal/ingest"
	"github.com/banshee-data/focus.report/internal/report"
	"github.com/banshee-data/focus.report/internal/session"
)

// LatestCalibrationID selects the most recently stored calibration.
const LatestCalibrationID = "latest"

// ScoreRequest is the JSON body of POST /api/sessions.
type ScoreRequest struct {
	Samples       []gaze.Sample `json:"samples"`
	CalibrationID string        `json:"calibration_id,omitempty"`
}

// ScoreResponse is returned by POST /api/sessions.
type ScoreResponse struct {
	session.Summary
	Persisted bool         `json:"persisted"`
	Ingest    ingest.Stats `json:"ingest"`
}

// scoreSession replays a recorded session. The body is either a ScoreRequest
// or, for any non-JSON content type, sample lines in the ingest format with
// the calibration passed as ?calibration_id=.
func (s *Server) scoreSession(w http.ResponseWriter, r *http.Request) {
	var (
		req   ScoreRequest
		stats ingest.Stats
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		for i, smp := range req.Samples {
			if err := ingest.ValidateSample(smp); err != nil {
				httputil.BadRequest(w, fmt.Sprintf("sample %d: %v", i, err))
				return
			}
		}
		stats = ingest.Stats{Lines: int64(len(req.Samples)), Samples: int64(len(req.Samples))}
	} else {
		body, err := httputil.ReadBody(w, r)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if req.Samples, stats, err = ingest.ReadSamples(bytes.NewReader(body)); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		req.CalibrationID = r.URL.Query().Get("calibration_id")
	}
	if len(req.Samples) == 0 {
		httputil.BadRequest(w, "no samples in request")
		return
	}

	var opts []session.Option
	if req.CalibrationID != "" {
		if !s.requireStore(w) {
			return
		}
		res, err := s.lookupCalibration(r, req.CalibrationID)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		opts = append(opts, session.WithMapper(res.Transform), session.WithCalibrationID(res.ID))
	}

	sum := session.Replay(s.session, req.Samples, opts...)
	resp := ScoreResponse{Summary: sum, Ingest: stats}
	if s.store != nil {
		if err := s.store.SaveSession(r.Context(), sum); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to save session: %v", err))
			return
		}
		resp.Persisted = true
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	sessions, err := s.store.ListSessions(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []session.Summary{}
	}
	httputil.WriteJSONOK(w, sessions)
}

// loadSession writes the error response itself and reports success.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (session.Summary, bool) {
	if !s.requireStore(w) {
		return session.Summary{}, false
	}
	sum, err := s.store.GetSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return session.Summary{}, false
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load session: %v", err))
		return session.Summary{}, false
	}
	return sum, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if sum, ok := s.loadSession(w, r); ok {
		httputil.WriteJSONOK(w, sum)
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	err := s.store.DeleteSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to delete session: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionChart(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, sum, s.session.Screen); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) sessionPlot(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WritePNG(&buf, sum, s.session.Screen); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
