package engine

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// COLMAP's GPU feature extraction uses Qt internally, which needs a display
// on headless servers.
var colmapEnv = []string{"QT_QPA_PLATFORM=offscreen"}

// Matcher choice flips to exhaustive above this many images.
const exhaustiveThreshold = 500

// ExtractFrames decodes one video into numbered JPEG frames at the given
// sample rate. outPattern is an ffmpeg image2 pattern like frame_%05d.jpg.
func ExtractFrames(bin, video, outPattern string, fps int) Command {
	return Command{
		Name: bin,
		Args: []string{
			"-i", video,
			"-vf", fmt.Sprintf("fps=%d", fps),
			"-q:v", "2",
			outPattern,
		},
	}
}

// FeatureExtractor detects SIFT features for every image in imageDir.
// Images are named camNN_frame_NNNNN.jpg so COLMAP groups intrinsics per
// camera; single_camera stays off for that reason.
func FeatureExtractor(bin, dbPath, imageDir string) Command {
	return Command{
		Name: bin,
		Args: []string{
			"feature_extractor",
			"--database_path", dbPath,
			"--image_path", imageDir,
			"--ImageReader.camera_model", "OPENCV",
			"--ImageReader.single_camera", "0",
			"--SiftExtraction.use_gpu", "1",
			"--SiftExtraction.max_image_size", "1600",
			"--SiftExtraction.max_num_features", "8192",
		},
		Env: colmapEnv,
	}
}

// Matcher picks sequential matching for video-sized image sets and
// exhaustive matching for large multi-camera sets.
func Matcher(bin, dbPath string, imageCount int) Command {
	if imageCount > exhaustiveThreshold {
		return Command{
			Name: bin,
			Args: []string{
				"exhaustive_matcher",
				"--database_path", dbPath,
				"--SiftMatching.use_gpu", "1",
				"--SiftMatching.max_num_matches", "32768",
			},
			Env: colmapEnv,
		}
	}
	return Command{
		Name: bin,
		Args: []string{
			"sequential_matcher",
			"--database_path", dbPath,
			"--SiftMatching.use_gpu", "1",
			"--SequentialMatching.overlap", "10",
			"--SequentialMatching.quadratic_overlap", "1",
		},
		Env: colmapEnv,
	}
}

// GlomapMapper runs the global mapper: much faster than incremental
// mapping, but can fail to converge on difficult inputs.
func GlomapMapper(bin, dbPath, imageDir, outDir string) Command {
	return Command{
		Name: bin,
		Args: []string{
			"mapper",
			"--database_path", dbPath,
			"--image_path", imageDir,
			"--output_path", outDir,
		},
		Env: colmapEnv,
	}
}

// ColmapMapper runs COLMAP's incremental mapper, tuned for multi-camera
// video footage. Slower than the global mapper but more robust.
func ColmapMapper(bin, dbPath, imageDir, outDir string) Command {
	return Command{
		Name: bin,
		Args: []string{
			"mapper",
			"--database_path", dbPath,
			"--image_path", imageDir,
			"--output_path", outDir,
			"--Mapper.ba_refine_focal_length", "1",
			"--Mapper.ba_refine_principal_point", "0",
			"--Mapper.ba_refine_extra_params", "1",
			"--Mapper.min_num_matches", "15",
			"--Mapper.init_min_num_inliers", "100",
			"--Mapper.abs_pose_min_num_inliers", "30",
			"--Mapper.filter_max_reproj_error", "4.0",
			"--Mapper.multiple_models", "0",
		},
		Env: colmapEnv,
	}
}

// ModelConverter exports a sparse model to another format ("PLY" or "TXT").
func ModelConverter(bin, modelDir, outPath, outType string) Command {
	return Command{
		Name: bin,
		Args: []string{
			"model_converter",
			"--input_path", modelDir,
			"--output_path", outPath,
			"--output_type", outType,
		},
		Env: colmapEnv,
	}
}

// OpenSplat trains a static Gaussian splat from a COLMAP project directory
// and writes the scene point cloud to outPath.
func OpenSplat(bin, colmapDir string, steps int, outPath string) Command {
	return Command{
		Name: bin,
		Args: []string{
			colmapDir,
			"-n", strconv.Itoa(steps),
			"-o", outPath,
		},
		Progress: TrainProgress,
	}
}

// TemporalTrain runs 4D Gaussian training over a multi-camera frame tree.
func TemporalTrain(python, repoDir, dataDir, configPath, modelDir, name string) Command {
	return Command{
		Name: python,
		Args: []string{
			filepath.Join(repoDir, "train.py"),
			"-s", dataDir,
			"--port", "6017",
			"--expname", name,
			"--configs", configPath,
			"--model_path", modelDir,
		},
		Dir:      repoDir,
		Progress: TrainProgress,
	}
}

// TemporalExport materializes one point cloud per timestamp from a trained
// temporal model.
func TemporalExport(python, repoDir string, iterations int, configPath, modelDir string) Command {
	return Command{
		Name: python,
		Args: []string{
			filepath.Join(repoDir, "export_perframe_3DGS.py"),
			"--iteration", strconv.Itoa(iterations),
			"--configs", configPath,
			"--model_path", modelDir,
		},
		Dir: repoDir,
	}
}
