package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/httputil"
)

// Client talks to a focus server.
type Client struct {
	base string
	http httputil.HTTPClient
}

// NewClient creates a client for the server at baseURL. A nil hc uses
// http.DefaultClient.
func NewClient(baseURL string, hc httputil.HTTPClient) *Client {
	if hc == nil {
		hc = httputil.NewStandardClient(nil)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// ScoreSession uploads samples for scoring and storage.
func (c *Client) ScoreSession(ctx context.Context, samples []gaze.Sample, calibrationID string) (ScoreResponse, error) {
	var out ScoreResponse
	err := c.postJSON(ctx, "/api/sessions", ScoreRequest{Samples: samples, CalibrationID: calibrationID}, &out)
	return out, err
}

// FitCalibration uploads calibration samples and returns the fitted result.
func (c *Client) FitCalibration(ctx context.Context, req CalibrationRequest) (CalibrationResponse, error) {
	var out CalibrationResponse
	err := c.postJSON(ctx, "/api/calibrations", req, &out)
	return out, err
}

// Calibration fetches a stored calibration; id may be LatestCalibrationID.
func (c *Client) Calibration(ctx context.Context, id string) (calibration.Result, error) {
	var out calibration.Result
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/calibrations/"+id, nil)
	if err != nil {
		return out, err
	}
	return out, c.do(req, &out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d: %s", req.Method, req.URL.Path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
