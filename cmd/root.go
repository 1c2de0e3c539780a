package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapline/visitplanner/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "visitplanner",
	Short: "Field-sales visit planning for pub lists",
	Long:  "Imports pub lists from spreadsheets, deduplicates them against the canonical set with full source lineage, and plans day-by-day visit schedules by deadline, follow-up, and priority.",
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
