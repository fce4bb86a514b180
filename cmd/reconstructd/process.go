package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gameview/reconstruct/internal/blob"
	"github.com/gameview/reconstruct/internal/engine"
	"github.com/gameview/reconstruct/internal/model"
	"github.com/gameview/reconstruct/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process <request.json>",
	Short: "Run one job from a trigger request file and print the result envelope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var req model.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("decode request: %w", err)
		}
		if err := req.Validate(); err != nil {
			return err
		}

		var storage blob.Storage
		if cfg.StorageURL != "" {
			storage = blob.NewBucket(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
		} else {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return err
			}
			storage = blob.LocalFS{Root: filepath.Join(cfg.DataDir, "outputs"), BaseURL: cfg.BaseURL}
		}

		pipe := &pipeline.Pipeline{
			Cfg:     cfg,
			Log:     log,
			Runner:  &engine.Executor{Log: log},
			Storage: storage,
		}

		env := pipe.Run(context.Background(), req)
		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if !env.Success {
			os.Exit(1)
		}
		return nil
	},
}
