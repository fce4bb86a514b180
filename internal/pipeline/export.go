package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gameview/reconstruct/internal/engine"
	"github.com/gameview/reconstruct/internal/model"
)

// exportFrames materializes one point cloud per timestamp from the trained
// temporal model. Static jobs skip this stage; their scene artifact already
// exists after training.
func (j *job) exportFrames(ctx context.Context) error {
	if !j.settings.MotionEnabled {
		return nil
	}

	j.report(model.StageExporting, 85, "Exporting per-frame point clouds")

	configPath := filepath.Join(j.workDir, "config.py")
	cmd := engine.TemporalExport(j.p.Cfg.PythonBin, j.p.Cfg.TemporalRepoDir,
		j.settings.Iterations, configPath, j.modelDir)
	if res := j.run(ctx, cmd); !res.Succeeded {
		return fmt.Errorf("per-frame export failed: %s", failDetail(res))
	}

	exported, err := filepath.Glob(filepath.Join(j.modelDir, "gaussian_pertimestamp", "time_*.ply"))
	if err != nil {
		return err
	}
	if len(exported) == 0 {
		return errors.New("per-frame export produced no files")
	}
	sort.Strings(exported)

	framesOut := filepath.Join(j.outputDir, "frames")
	if err := os.MkdirAll(framesOut, 0o755); err != nil {
		return err
	}
	for i, src := range exported {
		dst := filepath.Join(framesOut, fmt.Sprintf("frame_%05d.ply", i))
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	j.p.Log.Info("[%s] exported %d per-frame point clouds", j.req.ProductionID, len(exported))

	return j.writeThumbnail()
}
