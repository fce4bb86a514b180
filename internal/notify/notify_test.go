package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gameview/reconstruct/internal/logging"
	"github.com/gameview/reconstruct/internal/model"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.New("never", "", false)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func TestProgressURLDerivation(t *testing.T) {
	got := progressURL("https://studio.example.com/api/processing/callback")
	want := "https://studio.example.com/api/processing/progress"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// URLs without the known suffix pass through unchanged.
	passthrough := "https://studio.example.com/hooks/done"
	if got := progressURL(passthrough); got != passthrough {
		t.Fatalf("got %q, want %q", got, passthrough)
	}
}

func TestProgressPostsBody(t *testing.T) {
	var mu sync.Mutex
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path != "/api/processing/progress" {
			t.Errorf("posted to %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer ts.Close()

	c := New(ts.URL+"/api/processing/callback", testLogger(t))
	c.Progress("prod-1", model.StageTraining, 65, "Training 15000/30000")

	mu.Lock()
	defer mu.Unlock()
	if got["productionId"] != "prod-1" || got["stage"] != model.StageTraining {
		t.Fatalf("unexpected body: %v", got)
	}
	if got["progress"] != float64(65) {
		t.Fatalf("progress = %v, want 65", got["progress"])
	}
}

func TestProgressSwallowsTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := New(ts.URL+"/api/processing/callback", testLogger(t))
	c.Progress("prod-1", model.StageDownloading, 5, "Downloading videos")

	// An unreachable endpoint must be equally harmless.
	dead := New("http://127.0.0.1:1/api/processing/callback", testLogger(t))
	dead.Progress("prod-1", model.StageDownloading, 5, "Downloading videos")
}

func TestCompletePostsEnvelopeOnce(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var got model.ResultEnvelope
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer ts.Close()

	c := New(ts.URL, testLogger(t))
	c.Complete(model.ResultEnvelope{
		Success:      true,
		ProductionID: "prod-1",
		ExperienceID: "exp-1",
		Outputs:      map[string]any{"plyUrl": "https://cdn.test/prod-1/scene.ply"},
	})

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("callback posted %d times, want 1", calls)
	}
	if !got.Success || got.ProductionID != "prod-1" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
}

func TestEmptyCallbackURLIsNoop(t *testing.T) {
	c := New("", testLogger(t))
	c.Progress("prod-1", model.StageDownloading, 5, "")
	c.Complete(model.ResultEnvelope{ProductionID: "prod-1"})
}
