// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd implements the powerdata command line: connecting to an app
// host, inspecting the app's data sources, and running record operations
// through the data runtime.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"powerdata/cli/internal/config"
	"powerdata/cli/internal/logging"

	"github.com/spf13/cobra"
)

var (
	showVersion     bool
	verbose         bool
	hostFlag        string
	dataSourcesFlag string
	jsonOutput      bool

	// Populated by the persistent pre-run.
	cfg    config.Config
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "powerdata",
	Short: "Work with a Code App's data sources from the terminal",
	Long: `powerdata connects to a running app host, loads the app's dataSourcesInfo
manifest and runs record operations against Dataverse tables and connector
tables through the same data runtime the app uses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if hostFlag != "" {
			c.Host.Address = hostFlag
		}
		if dataSourcesFlag != "" {
			c.App.DataSources = dataSourcesFlag
		}
		level := logging.ParseLevel(c.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		cfg = c
		logger = logging.New(level, os.Stderr)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("powerdata %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("powerdata", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "App host address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataSourcesFlag, "data-sources", "", "Path or URL of the dataSourcesInfo manifest")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}
