package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/report"
)

var validateRebuild bool

var validateCmd = &cobra.Command{
	Use:   "validate <book-id>",
	Short: "Validate a staged book's page numbering",
	Long: `Validate a staged book's page numbering.

Each observation is parsed and checked against its predecessor, the
flagged pages are clustered into review units, and the resulting
sequence report is persisted as a new run and written under the home
directory.

With --rebuild the stored page statuses from the latest run are reused
and only the clustering and report are recomputed.

Examples:
  collate validate 01b9f5a2-4c3e-4f9b-9f3d-8a2e1c7d6b5a
  collate validate 01b9f5a2-4c3e-4f9b-9f3d-8a2e1c7d6b5a --rebuild`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfgMgr.Get())

		st, cleanup, err := openStore(h)
		if err != nil {
			return err
		}
		defer cleanup()

		run := report.Run
		if validateRebuild {
			run = report.Rebuild
		}
		summary, err := run(ctx, st, h, args[0], logger)
		if err != nil {
			return err
		}

		return api.Output(summary)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateRebuild, "rebuild", false, "Recluster from the stored statuses instead of revalidating")

	rootCmd.AddCommand(validateCmd)
}
