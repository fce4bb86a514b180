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

// reconstruct estimates camera poses: feature extraction, matching, then
// sparse mapping with a fallback pair. The global mapper goes first because
// it is fast; on any failure (nonzero exit or timeout) the incremental
// mapper retries with the same database. A timeout on the incremental
// mapper is fatal, since no further engine is available.
func (j *job) reconstruct(ctx context.Context) error {
	dbPath := filepath.Join(j.colmapDir, "database.db")
	images := filepath.Join(j.colmapDir, "images")

	j.report(model.StageFeatures, 20, "Extracting image features")
	if res := j.run(ctx, engine.FeatureExtractor(j.p.Cfg.ColmapBin, dbPath, images)); !res.Succeeded {
		return fmt.Errorf("feature extraction failed: %s", failDetail(res))
	}

	j.report(model.StageMatching, 30, "Matching features")
	if res := j.run(ctx, engine.Matcher(j.p.Cfg.ColmapBin, dbPath, j.totalFrames)); !res.Succeeded {
		return fmt.Errorf("feature matching failed: %s", failDetail(res))
	}

	j.report(model.StageMapper, 40, "Reconstructing 3D structure")
	sparseDir := filepath.Join(j.colmapDir, "sparse")
	if err := os.MkdirAll(sparseDir, 0o755); err != nil {
		return err
	}

	co := Coordinator{
		Primary: FallbackEngine{
			Name: "glomap",
			Invoke: func(ctx context.Context) engine.Result {
				return j.run(ctx, engine.GlomapMapper(j.p.Cfg.GlomapBin, dbPath, images, sparseDir))
			},
		},
		Secondary: FallbackEngine{
			Name: "colmap",
			Invoke: func(ctx context.Context) engine.Result {
				return j.run(ctx, engine.ColmapMapper(j.p.Cfg.ColmapBin, dbPath, images, sparseDir))
			},
		},
		OnFallback: func(primary Attempt) {
			j.p.Log.Warn("[%s] %s mapper failed (%s), falling back to incremental mapping",
				j.req.ProductionID, primary.Engine, primary.Result.Reason())
			j.report(model.StageMapper, 45, "Global mapping failed, retrying with incremental mapper")
		},
	}

	outcome := co.Run(ctx)
	if !outcome.Succeeded() {
		return fmt.Errorf("sparse reconstruction failed: %s", outcome.FailureDetail())
	}

	modelDir, err := findSparseModel(sparseDir)
	if err != nil {
		return err
	}
	j.sparseModel = modelDir
	return nil
}

// findSparseModel locates the first model subdirectory containing camera
// binaries. At least one valid model is the mappers' success contract.
func findSparseModel(sparseDir string) (string, error) {
	entries, err := os.ReadDir(sparseDir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		dir := filepath.Join(sparseDir, name)
		if _, err := os.Stat(filepath.Join(dir, "cameras.bin")); err == nil {
			return dir, nil
		}
	}
	return "", errors.New("sparse reconstruction produced no valid model")
}
