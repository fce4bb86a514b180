package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gameview/reconstruct/internal/blob"
	"github.com/gameview/reconstruct/internal/engine"
	"github.com/gameview/reconstruct/internal/httpapi"
	"github.com/gameview/reconstruct/internal/pipeline"
	"github.com/gameview/reconstruct/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the trigger API and process jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("mkdir data dir: %w", err)
		}

		jobs, err := store.Open(filepath.Join(cfg.DataDir, "productions.db"))
		if err != nil {
			return fmt.Errorf("open production store: %w", err)
		}
		defer jobs.Close()

		baseURL := cfg.BaseURL
		if baseURL == "" {
			addr := cfg.Addr
			if strings.HasPrefix(addr, ":") {
				addr = "localhost" + addr
			}
			baseURL = fmt.Sprintf("http://%s", addr)
		}

		var storage blob.Storage
		var files *blob.LocalFS
		if cfg.StorageURL != "" {
			storage = blob.NewBucket(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
			log.Info("storage: bucket %s at %s", cfg.StorageBucket, cfg.StorageURL)
		} else {
			local := blob.LocalFS{Root: filepath.Join(cfg.DataDir, "outputs"), BaseURL: baseURL}
			storage = local
			files = &local
			log.Info("storage: local dir %s", local.Root)
		}

		pipe := &pipeline.Pipeline{
			Cfg:     cfg,
			Log:     log,
			Runner:  &engine.Executor{Log: log},
			Storage: storage,
			Store:   jobs,
		}

		server := httpapi.Server{
			Log:   log,
			Jobs:  jobs,
			Pipe:  pipe,
			Files: files,
		}

		log.Info("API listening on %s (baseURL=%s)", cfg.Addr, baseURL)
		return http.ListenAndServe(cfg.Addr, server.Router())
	},
}
