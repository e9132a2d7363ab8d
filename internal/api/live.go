package api

import (
	"net/http"
	"sync"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/httputil"
	"github.com/banshee-data/focus.report/internal/ingest"
	"github.com/banshee-data/focus.report/internal/session"
)

// LiveState is the JSON view of a running session.
type LiveState struct {
	SessionID  string           `json:"session_id"`
	Active     bool             `json:"active"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Samples    int              `json:"samples"`
	Dropped    int              `json:"dropped"`
	Gaze       gaze.Point       `json:"gaze"`
	OnScreen   bool             `json:"on_screen"`
	Score      *int             `json:"score,omitempty"`
	Preview    *gaze.Fixation   `json:"preview,omitempty"`
	LastBlink  *gaze.BlinkEvent `json:"last_blink,omitempty"`
	Fixations  int              `json:"fixations"`
	Saccades   int              `json:"saccades"`
	Blinks     int              `json:"blinks"`
	Ingest     *ingest.Stats    `json:"ingest,omitempty"`
	LastResult *session.Summary `json:"last_result,omitempty"`
}

// Live publishes the state of a session that runs on another goroutine. The
// session runner calls Publish from its update callback; HTTP handlers read
// copies through State.
type Live struct {
	mu     sync.RWMutex
	state  LiveState
	source interface{ Stats() ingest.Stats }
	now    func() time.Time
}

// NewLive creates an inactive feed. source, when non-nil, supplies ingest
// counters for the state view.
func NewLive(source interface{ Stats() ingest.Stats }) *Live {
	return &Live{source: source, now: time.Now}
}

// Begin marks a new session as active.
func (l *Live) Begin(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	last := l.state.LastResult
	l.state = LiveState{SessionID: id, Active: true, UpdatedAt: l.now(), LastResult: last}
}

// Publish folds one pipeline update into the state.
func (l *Live) Publish(u session.Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := &l.state
	st.UpdatedAt = l.now()
	if u.Dropped {
		st.Dropped++
		return
	}
	st.Samples++
	st.Gaze = u.Smoothed
	st.OnScreen = u.OnScreen
	st.Preview = u.Preview
	if u.Fixation != nil && !u.FixationMerged {
		st.Fixations++
	}
	if u.Saccade != nil {
		st.Saccades++
	}
	if u.Blink != nil {
		st.Blinks++
		st.LastBlink = u.Blink
	}
	if u.Score != nil {
		st.Score = u.Score
	}
}

// End records the final summary and marks the feed inactive.
func (l *Live) End(sum session.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Active = false
	l.state.UpdatedAt = l.now()
	l.state.Score = &sum.Metrics.FocusScore
	l.state.LastResult = &sum
}

// State returns a copy of the current state.
func (l *Live) State() LiveState {
	l.mu.RLock()
	st := l.state
	l.mu.RUnlock()
	if l.source != nil {
		stats := l.source.Stats()
		st.Ingest = &stats
	}
	return st
}

func (s *Server) liveState(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		httputil.NotFound(w, "no live session source configured")
		return
	}
	httputil.WriteJSONOK(w, s.live.State())
}

// AttachAdminRoutes lists the live feed on the /debug/ index.
func (l *Live) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("live", "Live session state and ingest counters", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, l.State())
	}))
}
