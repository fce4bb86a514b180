package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gameview/reconstruct/internal/config"
	"github.com/gameview/reconstruct/internal/logging"
)

var (
	verbose bool
	cfg     config.Config
	log     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reconstructd",
	Short: "Video-to-3D/4D Gaussian splat reconstruction worker",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadDotEnv()
		cfg = config.Load()
		var err error
		log, err = logging.New(cfg.ColorMode, cfg.LogFile, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine output lines")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
}

// loadDotEnv walks up from the working directory looking for a .env file.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
