package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gameview/reconstruct/internal/engine"
	"github.com/gameview/reconstruct/internal/sampler"
)

// extractFrames decodes each video into per-camera frame directories, caps
// the aggregate frame count with temporally uniform sampling per camera,
// and lays the survivors out for the downstream engines:
//
//	data/multipleview/<id>/camNN/frame_NNNNN.jpg   temporal trainer tree
//	colmap/images/camNN_frame_NNNNN.jpg            flat dir, camera-prefixed
//	                                               so COLMAP groups intrinsics
func (j *job) extractFrames(ctx context.Context) error {
	perCam := make([][]string, len(j.req.SourceVideos))
	counts := make([]int, len(j.req.SourceVideos))

	for i, v := range j.req.SourceVideos {
		camDir := filepath.Join(j.framesDir, fmt.Sprintf("cam%02d", i))
		if err := os.MkdirAll(camDir, 0o755); err != nil {
			return err
		}

		video := filepath.Join(j.inputDir, filepath.Base(v.Filename))
		cmd := engine.ExtractFrames(j.p.Cfg.FFmpegBin, video, filepath.Join(camDir, "frame_%05d.jpg"), j.settings.FPS)
		if res := j.run(ctx, cmd); !res.Succeeded {
			return fmt.Errorf("frame extraction failed for %s: %s", v.Filename, failDetail(res))
		}

		frames, err := filepath.Glob(filepath.Join(camDir, "*.jpg"))
		if err != nil {
			return err
		}
		sort.Strings(frames)
		perCam[i] = frames
		counts[i] = len(frames)
		j.p.Log.Info("[%s] extracted %d frames from %s", j.req.ProductionID, len(frames), v.Filename)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return errors.New("no frames could be extracted from any source video")
	}

	// Sample per camera, not from the merged pool, so each camera keeps
	// its full temporal span.
	budgets := sampler.Budgets(counts, j.settings.MaxFrames)

	j.numCameras = 0
	j.frameCount = 0
	j.totalFrames = 0
	colmapImages := filepath.Join(j.colmapDir, "images")
	if err := os.MkdirAll(colmapImages, 0o755); err != nil {
		return err
	}

	for i, frames := range perCam {
		// A camera can extract frames yet get a zero quota when the budget
		// is dominated by larger cameras; it must not leave an empty dir in
		// the temporal data tree.
		if len(frames) == 0 || budgets[i] == 0 {
			continue
		}
		j.numCameras++
		camName := fmt.Sprintf("cam%02d", i)

		destCam := filepath.Join(j.dataDir, camName)
		if err := os.MkdirAll(destCam, 0o755); err != nil {
			return err
		}

		kept := 0
		for _, idx := range sampler.Indices(len(frames), budgets[i]) {
			kept++
			name := fmt.Sprintf("frame_%05d.jpg", kept)
			if err := copyFile(frames[idx], filepath.Join(destCam, name)); err != nil {
				return err
			}
			if err := copyFile(frames[idx], filepath.Join(colmapImages, camName+"_"+name)); err != nil {
				return err
			}
		}

		if kept > j.frameCount {
			j.frameCount = kept
		}
		j.totalFrames += kept
	}

	j.p.Log.Info("[%s] sampled %d frames across %d camera(s)", j.req.ProductionID, j.totalFrames, j.numCameras)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
