package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chicago",
	Short: "Chicago civic data unification and analysis",
	Long:  "Loads Chicago census, public school and crime datasets into one database and answers socioeconomic, safety and crime questions over them.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
