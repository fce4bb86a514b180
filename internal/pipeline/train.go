package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gameview/reconstruct/internal/engine"
	"github.com/gameview/reconstruct/internal/model"
)

// train produces the splat model. Static mode trains one scene-level point
// cloud and exports the camera metadata alongside it; motion mode trains a
// temporal model whose per-timestamp export happens in the next stage.
// Trainer output streams back as progress over the 50-80% window.
func (j *job) train(ctx context.Context) error {
	j.report(model.StageTraining, 50, "Training Gaussian splats")
	if j.settings.MotionEnabled {
		return j.trainTemporal(ctx)
	}
	return j.trainStatic(ctx)
}

func (j *job) trainStatic(ctx context.Context) error {
	plyPath := filepath.Join(j.outputDir, "scene.ply")

	// The splat trainer expects images/ and sparse/0 side by side.
	if err := j.canonicalizeSparse(filepath.Join(j.colmapDir, "sparse", "0")); err != nil {
		return err
	}

	cmd := engine.OpenSplat(j.p.Cfg.OpenSplatBin, j.colmapDir, j.settings.Iterations, plyPath)
	j.windowProgress(&cmd, model.StageTraining, 50, 80)
	if res := j.run(ctx, cmd); !res.Succeeded {
		return fmt.Errorf("splat training failed: %s", failDetail(res))
	}
	if _, err := os.Stat(plyPath); err != nil {
		return fmt.Errorf("splat training produced no point cloud")
	}

	if err := j.exportCameras(ctx); err != nil {
		return err
	}
	return j.writeThumbnail()
}

func (j *job) trainTemporal(ctx context.Context) error {
	// The temporal trainer reads the sparse model and seed point cloud from
	// inside its data tree.
	if err := copyDir(j.sparseModel, filepath.Join(j.dataDir, "sparse_")); err != nil {
		return err
	}
	points := filepath.Join(j.dataDir, "points3D_multipleview.ply")
	if res := j.run(ctx, engine.ModelConverter(j.p.Cfg.ColmapBin, j.sparseModel, points, "PLY")); !res.Succeeded {
		return fmt.Errorf("point cloud export failed: %s", failDetail(res))
	}

	configPath := filepath.Join(j.workDir, "config.py")
	if err := writeTemporalConfig(configPath, j.frameCount, j.settings.Iterations); err != nil {
		return err
	}

	cmd := engine.TemporalTrain(j.p.Cfg.PythonBin, j.p.Cfg.TemporalRepoDir,
		j.dataDir, configPath, j.modelDir, j.req.ProductionID)
	j.windowProgress(&cmd, model.StageTraining, 50, 80)
	if res := j.run(ctx, cmd); !res.Succeeded {
		return fmt.Errorf("temporal training failed: %s", failDetail(res))
	}
	return nil
}

// windowProgress wires a trainer command's parsed step counts into the
// stage's overall progress window.
func (j *job) windowProgress(cmd *engine.Command, stage string, floor, ceil int) {
	cmd.ProgressFloor = floor
	cmd.ProgressCeil = ceil
	cmd.OnProgress = func(pct int, message string) {
		j.report(stage, pct, "Training "+message)
	}
}

// canonicalizeSparse makes the accepted model available at the trainer's
// fixed sparse/0 path, whatever the mapper named it.
func (j *job) canonicalizeSparse(dest string) error {
	if j.sparseModel == dest {
		return nil
	}
	return copyDir(j.sparseModel, dest)
}

// exportCameras converts the sparse model to text and writes cameras.json
// next to the scene point cloud.
func (j *job) exportCameras(ctx context.Context) error {
	txtPath := filepath.Join(j.outputDir, "cameras.txt")
	if res := j.run(ctx, engine.ModelConverter(j.p.Cfg.ColmapBin, j.sparseModel, txtPath, "TXT")); !res.Succeeded {
		return fmt.Errorf("camera export failed: %s", failDetail(res))
	}

	cameras := map[string]any{
		"frames":       []any{},
		"camera_model": "PINHOLE",
	}
	raw, err := json.MarshalIndent(cameras, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(j.outputDir, "cameras.json"), raw, 0o644)
}

// writeThumbnail copies the first sampled frame of the first camera.
func (j *job) writeThumbnail() error {
	frames, err := filepath.Glob(filepath.Join(j.dataDir, "cam*", "*.jpg"))
	if err != nil || len(frames) == 0 {
		return fmt.Errorf("no frame available for thumbnail")
	}
	sort.Strings(frames)
	return copyFile(frames[0], filepath.Join(j.outputDir, "thumbnail.jpg"))
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
