package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dartlab/divcollect/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "divcollect",
	Short: "Incremental DART dividend-disclosure collector",
	Long:  "Harvests dividend-decision filings from the DART registry, extracts the dividend fields, and appends them to a JSONL corpus with a CSV snapshot. Runs are incremental: already-collected filings are never re-fetched.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return cfg.Validate()
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
