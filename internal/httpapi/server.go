package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gameview/reconstruct/internal/blob"
	"github.com/gameview/reconstruct/internal/logging"
	"github.com/gameview/reconstruct/internal/model"
	"github.com/gameview/reconstruct/internal/pipeline"
	"github.com/gameview/reconstruct/internal/store"
)

type Server struct {
	Log  *logging.Logger
	Jobs *store.SQLite
	Pipe *pipeline.Pipeline

	// Files serves locally stored artifacts; nil when a remote bucket is
	// configured.
	Files *blob.LocalFS
}

func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/process", s.handleTrigger(false))
	r.Post("/api/process/4d", s.handleTrigger(true))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/productions", s.handleListProductions)
		r.Get("/productions/{id}", s.handleGetProduction)
	})

	if s.Files != nil {
		r.Get("/files/*", s.handleGetFile)
	}

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// triggerSettings accepts both the static worker's totalSteps spelling and
// the motion worker's iterations; iterations wins when both are present.
type triggerSettings struct {
	FPS           *int  `json:"fps"`
	MaxFrames     *int  `json:"maxFrames"`
	Iterations    *int  `json:"iterations"`
	TotalSteps    *int  `json:"totalSteps"`
	MotionEnabled *bool `json:"motionEnabled"`
}

type triggerRequest struct {
	ProductionID string              `json:"productionId"`
	ExperienceID string              `json:"experienceId"`
	SourceVideos []model.SourceVideo `json:"sourceVideos"`
	Settings     triggerSettings     `json:"settings"`
	CallbackURL  string              `json:"callbackUrl"`
}

// handleTrigger acknowledges synchronously and dispatches the job to its
// own goroutine, so hours of blocking subprocess work never holds a request
// handler or starves other jobs.
func (s Server) handleTrigger(motion bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}

		req := model.Request{
			ProductionID: body.ProductionID,
			ExperienceID: body.ExperienceID,
			SourceVideos: body.SourceVideos,
			CallbackURL:  body.CallbackURL,
		}
		req.Settings.MotionEnabled = motion
		if body.Settings.MotionEnabled != nil {
			req.Settings.MotionEnabled = *body.Settings.MotionEnabled || motion
		}
		if body.Settings.FPS != nil {
			req.Settings.FPS = *body.Settings.FPS
		}
		if body.Settings.MaxFrames != nil {
			req.Settings.MaxFrames = *body.Settings.MaxFrames
		}
		switch {
		case body.Settings.Iterations != nil:
			req.Settings.Iterations = *body.Settings.Iterations
		case body.Settings.TotalSteps != nil:
			req.Settings.Iterations = *body.Settings.TotalSteps
		}

		if err := req.Validate(); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}

		if s.Jobs != nil {
			now := time.Now().UTC()
			p := model.Production{
				ID:           req.ProductionID,
				ExperienceID: req.ExperienceID,
				CreatedAt:    now,
				UpdatedAt:    now,
				Status:       model.StatusQueued,
			}
			if err := s.Jobs.CreateProduction(r.Context(), p); err != nil {
				s.Log.Warn("[%s] create production record: %v", req.ProductionID, err)
			}
		}

		callID := uuid.NewString()
		s.Log.Info("[%s] trigger accepted (call %s, motion=%v)", req.ProductionID, callID, req.Settings.MotionEnabled)

		go s.Pipe.Run(context.Background(), req)

		message := "Processing started"
		if req.Settings.MotionEnabled {
			message = "4D Motion processing started"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"message":      message,
			"callId":       callID,
			"productionId": req.ProductionID,
		})
	}
}

func (s Server) handleGetProduction(w http.ResponseWriter, r *http.Request) {
	if s.Jobs == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("production store is not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	p, err := s.Jobs.GetProduction(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s Server) handleListProductions(w http.ResponseWriter, r *http.Request) {
	if s.Jobs == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("production store is not configured"))
		return
	}

	var status *model.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed := model.Status(raw)
		switch parsed {
		case model.StatusQueued, model.StatusRunning, model.StatusDone, model.StatusError:
			status = &parsed
		default:
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid status: %s", raw))
			return
		}
	}

	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", raw))
			return
		}
		if value > 100 {
			value = 100
		}
		limit = value
	}

	productions, err := s.Jobs.ListProductions(r.Context(), status, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if productions == nil {
		productions = []model.Production{}
	}
	writeJSON(w, http.StatusOK, productions)
}

// handleGetFile serves artifacts from the local storage root.
func (s Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" || raw == "." {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing file path"))
		return
	}
	clean := filepath.Clean(raw)
	if clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, string(filepath.Separator)+"..") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid file path"))
		return
	}

	if !s.Files.Exists(clean) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("file not found"))
		return
	}
	f, err := s.Files.Open(clean)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	contentType := http.DetectContentType(buf[:n])
	if ext := filepath.Ext(clean); ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			if contentType == "application/octet-stream" || strings.HasPrefix(contentType, "text/plain") {
				contentType = mimeType
			}
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.Copy(w, f)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
