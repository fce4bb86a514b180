// Package pipeline drives one production job through its ordered stages:
// download, frame extraction, sparse reconstruction (with mapper fallback),
// splat training, per-frame export (motion only), and artifact upload.
//
// A stage failure halts forward progress. The scratch work area is always
// released and the completion callback always sent, whichever stage the job
// halted in.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gameview/reconstruct/internal/blob"
	"github.com/gameview/reconstruct/internal/config"
	"github.com/gameview/reconstruct/internal/engine"
	"github.com/gameview/reconstruct/internal/logging"
	"github.com/gameview/reconstruct/internal/model"
	"github.com/gameview/reconstruct/internal/notify"
	"github.com/gameview/reconstruct/internal/store"
)

// DownloadFunc fetches one source video to a local path.
type DownloadFunc func(ctx context.Context, url, dest string) error

// Pipeline holds the collaborators shared by all jobs. Each job runs on its
// own goroutine with an exclusively owned work area; nothing here is
// job-scoped.
type Pipeline struct {
	Cfg     config.Config
	Log     *logging.Logger
	Runner  engine.Runner
	Storage blob.Storage
	Store   *store.SQLite // optional; record keeping is best-effort
	Fetch   DownloadFunc  // nil means plain HTTP download
}

// Run executes one job to completion and returns its result envelope. The
// envelope is built exactly once, after the work area is released and
// immediately before the callback is sent.
func (p *Pipeline) Run(ctx context.Context, req model.Request) model.ResultEnvelope {
	req.Settings.Normalize()

	j := &job{
		p:        p,
		req:      req,
		settings: req.Settings,
		notify:   notify.New(req.CallbackURL, p.Log),
	}

	env := model.ResultEnvelope{
		ProductionID: req.ProductionID,
		ExperienceID: req.ExperienceID,
	}

	workDir, err := os.MkdirTemp("", "gv-"+req.ProductionID+"-")
	if err != nil {
		env.Error = "create work area: " + err.Error()
		p.finish(j, &env)
		return env
	}
	j.workDir = workDir
	defer os.RemoveAll(workDir) // safety net; the normal path removes it below

	if err := j.layout(); err != nil {
		os.RemoveAll(workDir)
		env.Error = "prepare work area: " + err.Error()
		p.finish(j, &env)
		return env
	}

	p.Log.Info("[%s] job started (motion=%v, %d videos)",
		req.ProductionID, req.Settings.MotionEnabled, len(req.SourceVideos))
	j.setStatus(model.StatusRunning)

	outputs, runErr := p.execute(ctx, j)

	// The work area is released before the envelope exists; partial uploads
	// from earlier stages are never rolled back.
	os.RemoveAll(workDir)

	if runErr != nil {
		env.Error = runErr.Error()
		p.Log.Error("[%s] job failed: %v", req.ProductionID, runErr)
	} else {
		env.Success = true
		env.Outputs = outputs
		p.Log.Success("[%s] job complete", req.ProductionID)
	}

	p.finish(j, &env)
	return env
}

// execute runs the stage sequence. The first stage error stops the run.
func (p *Pipeline) execute(ctx context.Context, j *job) (map[string]any, error) {
	j.report(model.StageDownloading, 5, "Downloading videos")
	if err := j.download(ctx); err != nil {
		return nil, err
	}

	j.report(model.StageFrameExtraction, 10, "Extracting frames")
	if err := j.extractFrames(ctx); err != nil {
		return nil, err
	}

	if err := j.reconstruct(ctx); err != nil {
		return nil, err
	}

	if err := j.train(ctx); err != nil {
		return nil, err
	}

	if err := j.exportFrames(ctx); err != nil {
		return nil, err
	}

	return j.publish(ctx)
}

// finish records the terminal state and sends the completion callback. Both
// are best-effort with respect to the envelope, whose outcome is already
// decided.
func (p *Pipeline) finish(j *job, env *model.ResultEnvelope) {
	if p.Store != nil {
		patch := model.ProductionPatch{}
		if env.Success {
			status := string(model.StatusDone)
			stage := model.StageComplete
			progress := 100
			patch.Status = &status
			patch.Stage = &stage
			patch.Progress = &progress
			if raw, err := marshalOutputs(env.Outputs); err == nil {
				patch.OutputsJSON = &raw
			}
		} else {
			status := string(model.StatusError)
			patch.Status = &status
			patch.Error = &env.Error
		}
		if err := p.Store.UpdateProduction(context.Background(), env.ProductionID, patch); err != nil {
			p.Log.Warn("[%s] store update failed: %v", env.ProductionID, err)
		}
	}

	j.notify.Progress(env.ProductionID, model.StageComplete, 100, "Processing complete")
	j.notify.Complete(*env)
}

// job carries the per-run state: the request, the resolved settings, and
// the scratch directory tree.
type job struct {
	p        *Pipeline
	req      model.Request
	settings model.Settings
	notify   *notify.Client

	workDir   string
	inputDir  string
	framesDir string
	dataDir   string // multi-camera frame tree for the temporal trainer
	colmapDir string
	outputDir string
	modelDir  string // trained temporal model output

	sparseModel string // accepted sparse reconstruction subdir
	numCameras  int
	frameCount  int // frames per camera after sampling (max across cameras)
	totalFrames int
}

func (j *job) layout() error {
	j.inputDir = filepath.Join(j.workDir, "input")
	j.framesDir = filepath.Join(j.workDir, "frames")
	j.dataDir = filepath.Join(j.workDir, "data", "multipleview", j.req.ProductionID)
	j.colmapDir = filepath.Join(j.workDir, "colmap")
	j.outputDir = filepath.Join(j.workDir, "output")
	j.modelDir = filepath.Join(j.outputDir, "model")

	for _, d := range []string{j.inputDir, j.framesDir, j.dataDir, j.colmapDir, j.outputDir, j.modelDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// report emits a progress checkpoint and mirrors it into the production
// store. Checkpoint percentages are fixed per stage, so values at the call
// site are non-decreasing over a job's lifetime.
func (j *job) report(stage string, percent int, message string) {
	j.notify.Progress(j.req.ProductionID, stage, percent, message)
	if j.p.Store == nil {
		return
	}
	patch := model.ProductionPatch{Stage: &stage, Progress: &percent}
	if err := j.p.Store.UpdateProduction(context.Background(), j.req.ProductionID, patch); err != nil {
		j.p.Log.Warn("[%s] store update failed: %v", j.req.ProductionID, err)
	}
}

func (j *job) setStatus(status model.Status) {
	if j.p.Store == nil {
		return
	}
	s := string(status)
	if err := j.p.Store.UpdateProduction(context.Background(), j.req.ProductionID, model.ProductionPatch{Status: &s}); err != nil {
		j.p.Log.Warn("[%s] store update failed: %v", j.req.ProductionID, err)
	}
}

// run dispatches one engine invocation, applying the configured stage
// timeout unless the command set its own.
func (j *job) run(ctx context.Context, cmd engine.Command) engine.Result {
	if cmd.Timeout == 0 {
		cmd.Timeout = j.p.Cfg.StageTimeout
	}
	return j.p.Runner.Run(ctx, cmd)
}

// failDetail renders an engine failure as one human-readable string, with
// the output tail clipped the way the callback contract expects.
func failDetail(r engine.Result) string {
	reason := r.Reason()
	if r.Tail == "" {
		return reason
	}
	tail := r.Tail
	if len(tail) > 500 {
		tail = tail[len(tail)-500:]
	}
	return fmt.Sprintf("%s: %s", reason, tail)
}
