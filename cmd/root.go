// Package cmd defines and implements the CLI commands for the ptrcrawler
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ptrcrawler",
		Short: "Incremental crawler for US House periodic transaction reports",
		Long: `ptrcrawler ingests House members' periodic transaction reports from
the clerk's financial disclosure site, normalizes each disclosed trade into a
structured record, and persists them to Postgres. Crawls are resumable: years,
members, and documents that were already processed are skipped on re-runs.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml if present)")
	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configPath resolves the config file to load: the --config flag if given,
// otherwise ./config.yaml when it exists, otherwise defaults only.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
