package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "test error" {
		t.Errorf("error = %s, want 'test error'", resp["error"])
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(http.ResponseWriter)
		want  int
	}{
		{"ok", func(w http.ResponseWriter) { WriteJSONOK(w, map[string]int{"n": 1}) }, http.StatusOK},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound},
		{"unprocessable", func(w http.ResponseWriter) { UnprocessableEntity(w, "x") }, http.StatusUnprocessableEntity},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "x") }, http.StatusServiceUnavailable},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "x") }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"valid", `{"name":"a"}`, ""},
		{"empty", ``, "empty"},
		{"unknown field", `{"other":1}`, "unknown field"},
		{"malformed", `{"name":`, "invalid json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.in))
			var got body
			err := DecodeJSON(httptest.NewRecorder(), req, &got)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeJSON error = %v", err)
				}
				if got.Name != "a" {
					t.Errorf("Name = %q, want a", got.Name)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeJSON error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0,1,2\n"))
	got, err := ReadBody(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("ReadBody error = %v", err)
	}
	if string(got) != "0,1,2\n" {
		t.Errorf("ReadBody = %q", got)
	}
}
