package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the process-wide configuration, constructed once in main and
// passed into each component. All values come from the environment.
type Config struct {
	Addr    string
	DataDir string

	// BaseURL is used to build public URLs when artifacts are served from
	// the local data dir instead of a remote bucket.
	BaseURL string

	// Remote object storage. When StorageURL is empty, artifacts go to the
	// local filesystem under DataDir.
	StorageURL    string
	StorageKey    string
	StorageBucket string

	// External engine binaries.
	FFmpegBin    string
	ColmapBin    string
	GlomapBin    string
	OpenSplatBin string
	PythonBin    string

	// Checkout of the temporal trainer (train.py, export_perframe_3DGS.py).
	TemporalRepoDir string

	// Wall-clock limit applied to each engine invocation. Zero disables it.
	StageTimeout time.Duration

	LogFile   string
	ColorMode string
}

func Load() Config {
	return Config{
		Addr:            getenv("GV_API_ADDR", ":8090"),
		DataDir:         getenv("GV_DATA_DIR", "local-data"),
		BaseURL:         getenv("GV_BASE_URL", ""),
		StorageURL:      getenv("GV_STORAGE_URL", ""),
		StorageKey:      getenv("GV_STORAGE_KEY", ""),
		StorageBucket:   getenv("GV_STORAGE_BUCKET", "production-outputs"),
		FFmpegBin:       getenv("GV_FFMPEG_BIN", "ffmpeg"),
		ColmapBin:       getenv("GV_COLMAP_BIN", "colmap"),
		GlomapBin:       getenv("GV_GLOMAP_BIN", "glomap"),
		OpenSplatBin:    getenv("GV_OPENSPLAT_BIN", "opensplat"),
		PythonBin:       getenv("GV_PYTHON_BIN", "python3"),
		TemporalRepoDir: getenv("GV_4DGS_DIR", "/opt/4DGaussians"),
		StageTimeout:    getenvDuration("GV_STAGE_TIMEOUT", 0),
		LogFile:         getenv("GV_LOG_FILE", ""),
		ColorMode:       getenv("GV_COLOR", "auto"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
