package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/config"
)

var (
	configPath  string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file populated with the defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.WriteFile(config.Defaults(), configPath, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configPath, "path", "config.yaml", "file to write")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
