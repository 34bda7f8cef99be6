package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/pageseq"
)

var reportCmd = &cobra.Command{
	Use:   "report <book-id>",
	Short: "Show the latest sequence report for a book",
	Long: `Show the sequence report from a book's latest validation run.

On a terminal the clusters are rendered as a table; piped output and
explicit --output requests get the full report document.

Examples:
  collate report 01b9f5a2-4c3e-4f9b-9f3d-8a2e1c7d6b5a
  collate report 01b9f5a2-4c3e-4f9b-9f3d-8a2e1c7d6b5a -o json > report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID := args[0]

		h, err := getHome()
		if err != nil {
			return err
		}
		st, cleanup, err := openStoreRead(h)
		if err != nil {
			return err
		}
		defer cleanup()

		book, err := st.GetBook(ctx, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return fmt.Errorf("book %s not found", bookID)
		}

		run, err := st.LatestRun(ctx, bookID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("book %s has no validation runs (run 'collate validate %s' first)", bookID, bookID)
		}

		var rep pageseq.ClusterReport
		if err := json.Unmarshal([]byte(run.ReportJSON), &rep); err != nil {
			return fmt.Errorf("failed to decode stored report: %w", err)
		}

		// Humans at a terminal get a table; pipes and explicit
		// --output requests get the document.
		if cmd.Root().PersistentFlags().Changed("output") || !isTerminal(os.Stdout) {
			return api.Output(rep)
		}

		fmt.Printf("%s: %d pages, %d flagged, %d clusters\n", book.Title, run.PagesTotal, run.PagesFlagged, rep.TotalClusters)
		if rep.TotalClusters == 0 {
			fmt.Println("Nothing to review.")
			return nil
		}

		rows := make([][]string, 0, len(rep.Clusters))
		for _, c := range rep.Clusters {
			rows = append(rows, []string{
				c.ID,
				string(c.Priority),
				formatScanPages(c.ScanPages),
				c.ExpectedValue,
				clusterFound(c),
				clusterMissing(c),
			})
		}
		fmt.Println(renderTable(
			[]string{"Cluster", "Severity", "Scan Pages", "Expected", "Found", "Missing"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
		))
		return nil
	},
}

// formatScanPages collapses a contiguous page run to "first-last".
func formatScanPages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	if len(pages) == 1 {
		return strconv.Itoa(pages[0])
	}
	contiguous := true
	for i := 1; i < len(pages); i++ {
		if pages[i] != pages[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous {
		return fmt.Sprintf("%d-%d", pages[0], pages[len(pages)-1])
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func clusterFound(c pageseq.Cluster) string {
	if c.DetectedValue != nil {
		return strconv.Itoa(*c.DetectedValue)
	}
	return c.RawValue
}

func clusterMissing(c pageseq.Cluster) string {
	if c.GapSize != nil {
		return strconv.Itoa(*c.GapSize)
	}
	if c.ActualGap != nil && c.ExpectedGap != nil {
		return fmt.Sprintf("gap %d, want %d", *c.ActualGap, *c.ExpectedGap)
	}
	return ""
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
