package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Pipeline stage names, in execution order. These are the values sent in
// progress notifications and recorded in the production store.
const (
	StageDownloading     = "downloading"
	StageFrameExtraction = "frame_extraction"
	StageFeatures        = "colmap_features"
	StageMatching        = "colmap_matching"
	StageMapper          = "colmap_mapper"
	StageTraining        = "training"
	StageExporting       = "exporting"
	StageUploading       = "uploading"
	StageComplete        = "complete"
)

var ErrNotFound = errors.New("not found")

// SourceVideo is one raw input clip. Each video is treated as one camera
// view; the request order fixes the camera index.
type SourceVideo struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Settings is the fully resolved processing configuration for one job.
// Every recognized option is enumerated here; defaults are applied per mode
// by Normalize before the job starts.
type Settings struct {
	FPS           int  `json:"fps"`
	MaxFrames     int  `json:"maxFrames"`
	Iterations    int  `json:"iterations"`
	MotionEnabled bool `json:"motionEnabled"`
}

// Per-mode defaults. Motion jobs sample at a higher rate but cap fewer
// frames, and train much longer.
const (
	StaticFPS        = 3
	StaticMaxFrames  = 300
	StaticIterations = 15000

	MotionFPS        = 15
	MotionMaxFrames  = 150
	MotionIterations = 30000
)

// Normalize fills zero-valued fields with the defaults for the job's mode.
func (s *Settings) Normalize() {
	if s.MotionEnabled {
		if s.FPS <= 0 {
			s.FPS = MotionFPS
		}
		if s.MaxFrames <= 0 {
			s.MaxFrames = MotionMaxFrames
		}
		if s.Iterations <= 0 {
			s.Iterations = MotionIterations
		}
		return
	}
	if s.FPS <= 0 {
		s.FPS = StaticFPS
	}
	if s.MaxFrames <= 0 {
		s.MaxFrames = StaticMaxFrames
	}
	if s.Iterations <= 0 {
		s.Iterations = StaticIterations
	}
}

// Request is a fully validated trigger request, ready to dispatch.
type Request struct {
	ProductionID string        `json:"productionId"`
	ExperienceID string        `json:"experienceId"`
	SourceVideos []SourceVideo `json:"sourceVideos"`
	Settings     Settings      `json:"settings"`
	CallbackURL  string        `json:"callbackUrl"`
}

// Validate checks the fields a job cannot start without.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ProductionID) == "" {
		return errors.New("productionId is required")
	}
	if len(r.SourceVideos) == 0 {
		return errors.New("at least one source video is required")
	}
	for i, v := range r.SourceVideos {
		if v.URL == "" {
			return fmt.Errorf("sourceVideos[%d]: url is required", i)
		}
		if v.Filename == "" {
			return fmt.Errorf("sourceVideos[%d]: filename is required", i)
		}
	}
	return nil
}

// ResultEnvelope is the single terminal object POSTed to the callback URL.
// Success is true iff every required artifact for the job's mode was
// produced and uploaded.
type ResultEnvelope struct {
	Success      bool           `json:"success"`
	ProductionID string         `json:"productionId"`
	ExperienceID string         `json:"experienceId"`
	Outputs      map[string]any `json:"outputs"`
	Error        string         `json:"error,omitempty"`
}

// Production is a job record in the production store.
type Production struct {
	ID           string    `json:"id"`
	ExperienceID string    `json:"experienceId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Status       Status    `json:"status"`
	Stage        string    `json:"stage"`
	Progress     int       `json:"progress"`
	OutputsJSON  string    `json:"outputsJson,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// ProductionPatch is used for partial updates.
type ProductionPatch struct {
	Status      *string
	Stage       *string
	Progress    *int
	OutputsJSON *string
	Error       *string
}
