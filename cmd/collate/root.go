package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "collate",
	Short: "Page numbering validator and gap-healing cluster engine for book scans",
	Long: `Collate checks the printed page numbers OCR read off scanned book pages
against the physical scan order and reports where the sequence breaks.

Each scanned book is staged as an observation document, one entry per
scanned page. Collate parses the printed numbers (arabic or roman),
walks the scan order, flags every page that does not follow from the
last trusted one, and then groups the flagged pages into clusters a
reviewer can work through: backward jumps, single-page OCR misreads,
and runs of pages missing from the scan.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.collate/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "collate home directory (default: ~/.collate)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
