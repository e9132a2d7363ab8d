package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/focus"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/httputil"
	"github.com/banshee-data/focus.report/internal/ingest"
	"github.com/banshee-data/focus.report/internal/session"
)

type fixedStats ingest.Stats

func (f fixedStats) Stats() ingest.Stats { return ingest.Stats(f) }

func TestLiveFeed(t *testing.T) {
	live := NewLive(fixedStats{Lines: 5, Samples: 4, Malformed: 1})
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	live.now = func() time.Time { return now }

	live.Begin("s-1")
	score := 81
	live.Publish(session.Update{Smoothed: gaze.Point{X: 1, Y: 2}, OnScreen: true})
	live.Publish(session.Update{Dropped: true})
	live.Publish(session.Update{
		Fixation: &gaze.Fixation{},
		Saccade:  &gaze.Saccade{},
		Blink:    &gaze.BlinkEvent{Timestamp: 3, Duration: 0.1},
		Score:    &score,
	})

	st := live.State()
	assert.True(t, st.Active)
	assert.Equal(t, "s-1", st.SessionID)
	assert.Equal(t, 2, st.Samples)
	assert.Equal(t, 1, st.Dropped)
	assert.Equal(t, 1, st.Fixations)
	assert.Equal(t, 1, st.Saccades)
	assert.Equal(t, 1, st.Blinks)
	require.NotNil(t, st.Score)
	assert.Equal(t, 81, *st.Score)
	require.NotNil(t, st.Ingest)
	assert.Equal(t, int64(1), st.Ingest.Malformed)
	assert.Equal(t, now, st.UpdatedAt)

	live.End(session.Summary{ID: "s-1", Metrics: focus.SessionMetrics{FocusScore: 77}})
	st = live.State()
	assert.False(t, st.Active)
	assert.Equal(t, 77, *st.Score)
	require.NotNil(t, st.LastResult)

	live.Begin("s-2")
	st = live.State()
	assert.Zero(t, st.Samples)
	require.NotNil(t, st.LastResult, "previous result survives a new session")
	assert.Equal(t, "s-1", st.LastResult.ID)
}

func TestLiveFixationCountIgnoresMerges(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Smoother.Alpha = 1
	p := session.NewPipeline(cfg)
	live := NewLive(nil)
	live.Begin(p.ID())

	a, b := gaze.Point{X: 100, Y: 100}, gaze.Point{X: 130, Y: 100}
	i := 0
	feed := func(pt gaze.Point, n int) {
		for ; n > 0; n-- {
			live.Publish(p.Process(gaze.Sample{Point: pt, Timestamp: float64(i) / 30}))
			i++
		}
	}
	feed(a, 9)
	feed(b, 9)
	feed(a, 9)
	feed(b, 1)

	fixations := p.Snapshot().Fixations
	require.Len(t, fixations, 1)
	assert.Equal(t, len(fixations), live.State().Fixations)
}

func TestLiveRoute(t *testing.T) {
	rec := serve(t, NewServer(nil, nil).ServeMux(), http.MethodGet, "/api/live", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	live := NewLive(nil)
	live.Begin("s-9")
	rec = serve(t, NewServer(nil, nil, WithLive(live)).ServeMux(), http.MethodGet, "/api/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st LiveState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "s-9", st.SessionID)
	assert.Nil(t, st.Ingest)
}

func TestClientAgainstServer(t *testing.T) {
	server, _ := setupTestServer(t)
	ts := httptest.NewServer(server.ServeMux())
	defer ts.Close()

	c := NewClient(ts.URL+"/", nil)
	ctx := context.Background()

	screen := calibration.ScreenSize{Width: 1024, Height: 768}
	var samples []calibration.Sample
	for i, target := range calibration.LayoutFivePoint.Targets() {
		samples = append(samples, calibration.Sample{TargetIndex: i, Measured: screen.ToScreen(target)})
	}
	fitted, err := c.FitCalibration(ctx, CalibrationRequest{Layout: calibration.LayoutFivePoint, Samples: samples})
	require.NoError(t, err)
	assert.Equal(t, calibration.StatusFitted, fitted.Status)

	got, err := c.Calibration(ctx, LatestCalibrationID)
	require.NoError(t, err)
	assert.Equal(t, fitted.ID, got.ID)

	scored, err := c.ScoreSession(ctx, []gaze.Sample{
		{Timestamp: 0, Point: gaze.Point{X: 500, Y: 400}},
		{Timestamp: 0.05, Point: gaze.Point{X: 500, Y: 400}},
	}, fitted.ID)
	require.NoError(t, err)
	assert.Equal(t, fitted.ID, scored.CalibrationID)
	assert.True(t, scored.Persisted)

	_, err = c.Calibration(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClientErrors(t *testing.T) {
	mock := httputil.NewMockHTTPClient().
		AddErrorResponse(errors.New("connection refused")).
		AddResponse(http.StatusInternalServerError, "not json").
		AddResponse(http.StatusOK, "{")
	c := NewClient("http://focus.local", mock)
	ctx := context.Background()

	_, err := c.ScoreSession(ctx, nil, "")
	assert.ErrorContains(t, err, "connection refused")
	_, err = c.ScoreSession(ctx, nil, "")
	assert.ErrorContains(t, err, "unexpected status 500")
	_, err = c.ScoreSession(ctx, nil, "")
	assert.ErrorContains(t, err, "decode response")

	req, body := mock.Request(0)
	require.NotNil(t, req)
	assert.Equal(t, "http://focus.local/api/sessions", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"samples":null}`, string(body))
}

func TestLiveAdminRoute(t *testing.T) {
	live := NewLive(nil)
	live.Begin("s-admin")
	mux := http.NewServeMux()
	live.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/live", nil)
	req.RemoteAddr = "127.0.0.1:4321"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"s-admin"`)
}
