package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/ingest"
	"github.com/jackzampolin/collate/internal/report"
)

var (
	ingestTitle      string
	ingestAuthor     string
	ingestPDF        string
	ingestNoValidate bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <document.json>",
	Short: "Stage an observation document as a new book",
	Long: `Stage an observation document as a new book in the staging store.

The document is a JSON file produced by an OCR pass: one entry per
scanned page, in scan order, each carrying the raw printed page number
text (or null where the page shows none).

Unless --no-validate is set (or auto_validate is off in the config),
the book is validated immediately after staging and a sequence report
is written under the home directory.

Examples:
  collate ingest scans/moby-dick.json
  collate ingest scans/moby-dick.json --title "Moby Dick" --author "Melville"
  collate ingest scans/moby-dick.json --pdf scans/moby-dick.pdf
  collate ingest scans/moby-dick.json --no-validate`,
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
		cfg := cfgMgr.Get()
		logger := newLogger(cfg)

		st, cleanup, err := openStore(h)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := ingest.Ingest(ctx, st, ingest.Request{
			Path:    args[0],
			Title:   ingestTitle,
			Author:  ingestAuthor,
			PDFPath: ingestPDF,
			Logger:  logger,
		})
		if err != nil {
			return err
		}

		if cfg.Ingest.AutoValidate && !ingestNoValidate {
			if _, err := report.Run(ctx, st, h, res.BookID, logger); err != nil {
				return fmt.Errorf("staged %s but validation failed: %w", res.BookID, err)
			}
		}

		return api.Output(res)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Book title (overrides the document's)")
	ingestCmd.Flags().StringVar(&ingestAuthor, "author", "", "Book author (overrides the document's)")
	ingestCmd.Flags().StringVar(&ingestPDF, "pdf", "", "Source PDF to crosscheck the page count against")
	ingestCmd.Flags().BoolVar(&ingestNoValidate, "no-validate", false, "Stage only, skip validation")

	rootCmd.AddCommand(ingestCmd)
}
