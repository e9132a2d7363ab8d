package httputil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestNewStandardClient(t *testing.T) {
	if NewStandardClient(nil) != http.DefaultClient {
		t.Error("nil client should fall back to http.DefaultClient")
	}
	custom := &http.Client{}
	if NewStandardClient(custom) != custom {
		t.Error("custom client should be returned as is")
	}
}

func TestMockHTTPClient(t *testing.T) {
	m := NewMockHTTPClient().
		AddResponse(http.StatusCreated, `{"id":"a"}`).
		AddErrorResponse(errors.New("connection refused"))

	req, _ := http.NewRequest(http.MethodPost, "http://focus/api/sessions", strings.NewReader("payload"))
	resp, err := m.Do(req)
	if err != nil {
		t.Fatalf("first Do error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated || string(body) != `{"id":"a"}` {
		t.Errorf("first response = %d %q", resp.StatusCode, body)
	}

	req2, _ := http.NewRequest(http.MethodGet, "http://focus/api/sessions", nil)
	if _, err := m.Do(req2); err == nil || err.Error() != "connection refused" {
		t.Errorf("second Do error = %v, want connection refused", err)
	}

	req3, _ := http.NewRequest(http.MethodGet, "http://focus/healthz", nil)
	resp, err = m.Do(req3)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("default response = %v, %v", resp, err)
	}

	if m.RequestCount() != 3 {
		t.Errorf("RequestCount = %d, want 3", m.RequestCount())
	}
	got, gotBody := m.Request(0)
	if got.Method != http.MethodPost || string(gotBody) != "payload" {
		t.Errorf("Request(0) = %s %q", got.Method, gotBody)
	}
	if r, _ := m.Request(5); r != nil {
		t.Error("out of range request should be nil")
	}
}
