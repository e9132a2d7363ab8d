// Package api serves the focus pipeline over HTTP: batch scoring of recorded
// sessions, stored session and calibration lookup, session charts, and the
// state of a live session.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/config"
	"github.com/banshee-data/focus.report/internal/httputil"
	"github.com/banshee-data/focus.report/internal/session"
)

// ANSI escape codes used by the request logger.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Store is the persistence the server needs. *db.DB satisfies it.
type Store interface {
	SaveSession(ctx context.Context, sum session.Summary) error
	GetSession(ctx context.Context, id string) (session.Summary, error)
	ListSessions(ctx context.Context, limit int) ([]session.Summary, error)
	DeleteSession(ctx context.Context, id string) error
	SaveCalibration(ctx context.Context, res calibration.Result) error
	CalibrationStore
}

// CalibrationStore looks up stored calibrations.
type CalibrationStore interface {
	GetCalibration(ctx context.Context, id string) (calibration.Result, error)
	LatestCalibration(ctx context.Context) (calibration.Result, error)
}

// Server holds the handler dependencies.
type Server struct {
	store   Store
	tuning  *config.TuningConfig
	session session.Config
	calib   calibration.Config
	live    *Live
}

// Option configures a Server.
type Option func(*Server)

// WithLive exposes a live session feed under /api/live.
func WithLive(l *Live) Option {
	return func(s *Server) { s.live = l }
}

// NewServer creates a server. store may be nil, in which case scored
// sessions and calibrations are returned but not kept.
func NewServer(store Store, tuning *config.TuningConfig, opts ...Option) *Server {
	if tuning == nil {
		tuning = config.DefaultTuningConfig()
	}
	s := &Server{
		store:   store,
		tuning:  tuning,
		session: session.ConfigFromTuning(tuning),
		calib:   calibration.ConfigFromTuning(tuning),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", s.showConfig)

	mux.HandleFunc("POST /api/sessions", s.scoreSession)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/chart", s.sessionChart)
	mux.HandleFunc("GET /api/sessions/{id}/plot.png", s.sessionPlot)

	mux.HandleFunc("POST /api/calibrations", s.fitCalibration)
	mux.HandleFunc("GET /api/calibrations/latest", s.latestCalibration)
	mux.HandleFunc("GET /api/calibrations/{id}", s.getCalibration)

	mux.HandleFunc("GET /api/live", s.liveState)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.tuning)
}

// requireStore writes 503 and returns false when persistence is disabled.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		httputil.ServiceUnavailable(w, "persistence is not configured")
		return false
	}
	return true
}
