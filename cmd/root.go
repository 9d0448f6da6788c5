package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citylab/crimetab/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crimetab",
	Short: "Crime-incident schema reconciliation and reporting pipeline",
	Long:  "Ingests yearly crime-incident CSV exports with drifting schemas, merges them into one unified table, derives temporal features, and answers a fixed set of summary, chart, and district-lookup questions.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
