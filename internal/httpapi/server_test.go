package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gameview/reconstruct/internal/config"
	"github.com/gameview/reconstruct/internal/logging"
	"github.com/gameview/reconstruct/internal/pipeline"
)

func testServer(t *testing.T) Server {
	t.Helper()
	log, err := logging.New("never", "", false)
	if err != nil {
		t.Fatal(err)
	}
	// The dispatched job fails at the download stage immediately; these
	// tests only exercise the synchronous acknowledgment.
	pipe := &pipeline.Pipeline{
		Cfg: config.Config{},
		Log: log,
		Fetch: func(context.Context, string, string) error {
			return errors.New("no network in tests")
		},
	}
	return Server{Log: log, Pipe: pipe}
}

const triggerBody = `{
	"productionId": "prod-1",
	"experienceId": "exp-1",
	"sourceVideos": [{"url": "https://example.test/a.mp4", "filename": "a.mp4", "size": 100}],
	"settings": {"fps": 3, "totalSteps": 15000},
	"callbackUrl": ""
}`

func TestTriggerAcknowledgesImmediately(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(triggerBody))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		CallID       string `json:"callId"`
		ProductionID string `json:"productionId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.ProductionID != "prod-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.CallID == "" {
		t.Fatal("callId must be set")
	}
	if resp.Message != "Processing started" {
		t.Fatalf("message %q", resp.Message)
	}
}

func TestTrigger4DMarksMotion(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/process/4d", strings.NewReader(triggerBody))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "4D Motion processing started" {
		t.Fatalf("message %q", resp.Message)
	}
}

func TestTriggerRejectsInvalidBody(t *testing.T) {
	s := testServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"productionId": `},
		{"missing production id", `{"sourceVideos": [{"url": "u", "filename": "f"}]}`},
		{"no videos", `{"productionId": "p", "sourceVideos": []}`},
		{"video without url", `{"productionId": "p", "sourceVideos": [{"filename": "f"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", w.Code)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status %d, body %q", w.Code, w.Body.String())
	}
}

func TestListProductionsWithoutStore(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/productions", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", w.Code)
	}
}
