package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gameview/reconstruct/internal/model"
)

// Motion uploads checkpoint progress every Nth frame to bound notification
// volume for large artifact counts.
const uploadCheckpointEvery = 10

// publish uploads every produced artifact and assembles the outputs map for
// the result envelope. Uploads are independent idempotent upserts, but any
// single failure is fatal: the job never reports partial success.
func (j *job) publish(ctx context.Context) (map[string]any, error) {
	j.report(model.StageUploading, 90, "Uploading results")
	if j.settings.MotionEnabled {
		return j.publishMotion(ctx)
	}
	return j.publishStatic(ctx)
}

func (j *job) publishStatic(ctx context.Context) (map[string]any, error) {
	plyURL, err := j.upload(ctx, "scene.ply", filepath.Join(j.outputDir, "scene.ply"), "application/octet-stream")
	if err != nil {
		return nil, err
	}
	camerasURL, err := j.upload(ctx, "cameras.json", filepath.Join(j.outputDir, "cameras.json"), "application/json")
	if err != nil {
		return nil, err
	}
	thumbURL, err := j.upload(ctx, "thumbnail.jpg", filepath.Join(j.outputDir, "thumbnail.jpg"), "image/jpeg")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"plyUrl":       plyURL,
		"camerasUrl":   camerasURL,
		"thumbnailUrl": thumbURL,
	}, nil
}

func (j *job) publishMotion(ctx context.Context) (map[string]any, error) {
	frames, err := filepath.Glob(filepath.Join(j.outputDir, "frames", "frame_*.ply"))
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no per-frame artifacts to upload")
	}
	sort.Strings(frames)

	frameURLs := make([]string, 0, len(frames))
	for i, path := range frames {
		key := fmt.Sprintf("frames/frame_%05d.ply", i)
		url, err := j.upload(ctx, key, path, "application/octet-stream")
		if err != nil {
			return nil, err
		}
		frameURLs = append(frameURLs, url)

		if i%uploadCheckpointEvery == 0 {
			pct := 90 + i*8/len(frames)
			j.report(model.StageUploading, pct, fmt.Sprintf("Uploading frame %d/%d", i+1, len(frames)))
		}
	}

	duration := float64(len(frameURLs)) / float64(j.settings.FPS)
	metadata := map[string]any{
		"motionEnabled": true,
		"frameCount":    len(frameURLs),
		"fps":           j.settings.FPS,
		"duration":      duration,
		"frameUrls":     frameURLs,
		"createdAt":     time.Now().UTC().Format(time.RFC3339),
		"settings": map[string]any{
			"iterations": j.settings.Iterations,
			"maxFrames":  j.settings.MaxFrames,
			"sourceFps":  j.settings.FPS,
		},
	}
	metadataPath := filepath.Join(j.outputDir, "metadata.json")
	raw, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(metadataPath, raw, 0o644); err != nil {
		return nil, err
	}
	metadataURL, err := j.upload(ctx, "metadata.json", metadataPath, "application/json")
	if err != nil {
		return nil, err
	}

	thumbURL, err := j.upload(ctx, "thumbnail.jpg", filepath.Join(j.outputDir, "thumbnail.jpg"), "image/jpeg")
	if err != nil {
		return nil, err
	}

	// The first timestamp doubles as the scene point cloud so static
	// viewers can load motion productions.
	plyURL, err := j.upload(ctx, "scene.ply", frames[0], "application/octet-stream")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"motionEnabled": true,
		"frameUrls":     frameURLs,
		"metadataUrl":   metadataURL,
		"thumbnailUrl":  thumbURL,
		"plyUrl":        plyURL,
		"frameCount":    len(frameURLs),
		"fps":           j.settings.FPS,
		"duration":      duration,
	}, nil
}

// upload upserts one local file under the job's storage prefix and returns
// its public URL.
func (j *job) upload(ctx context.Context, key, path, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer f.Close()

	fullKey := j.req.ProductionID + "/" + key
	if err := j.p.Storage.Upsert(ctx, fullKey, contentType, f); err != nil {
		return "", err
	}
	return j.p.Storage.PublicURL(fullKey), nil
}

func marshalOutputs(outputs map[string]any) (string, error) {
	raw, err := json.Marshal(outputs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
