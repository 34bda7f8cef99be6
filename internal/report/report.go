// Package report runs the sequence validator over staged books and
// persists the results: sequence columns on the page rows, a run record,
// and the cluster report document under the home reports directory.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jackzampolin/collate/internal/home"
	"github.com/jackzampolin/collate/internal/pageseq"
	"github.com/jackzampolin/collate/internal/store"
)

// ErrBookNotFound is returned when the requested book is not staged.
var ErrBookNotFound = errors.New("book not found")

// ErrNotValidated is returned when an operation needs sequence rows but
// the book has never been validated.
var ErrNotValidated = errors.New("book not validated")

// RunSummary describes a completed validation run.
type RunSummary struct {
	RunID         string `json:"run_id"`
	BookID        string `json:"book_id"`
	Title         string `json:"title"`
	PagesTotal    int    `json:"pages_total"`
	PagesFlagged  int    `json:"pages_flagged"`
	TotalClusters int    `json:"total_clusters"`
	ReportPath    string `json:"report_path"`
}

// Run validates a staged book end to end: sequences its observations,
// clusters the review subset, persists both, and writes the report
// document.
func Run(ctx context.Context, st *store.Store, homeDir *home.Dir, bookID string, logger *slog.Logger) (*RunSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	book, err := st.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("book %s: %w", bookID, ErrBookNotFound)
	}

	obs, err := st.Observations(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("book %s has no staged pages", bookID)
	}

	pages, err := pageseq.Validate(obs)
	if err != nil {
		return nil, fmt.Errorf("failed to validate sequence: %w", err)
	}

	if err := st.SaveSequence(ctx, bookID, pages); err != nil {
		return nil, fmt.Errorf("failed to save sequence: %w", err)
	}

	rep := pageseq.BuildClusterReport(pages)

	return persist(ctx, st, homeDir, book, pages, rep, logger)
}

// Rebuild re-clusters a book from its stored sequence rows without
// re-running the validator. Rows written by another producer keep
// whatever statuses they carry, so statuses the validator never emits
// still reach the matching passes.
func Rebuild(ctx context.Context, st *store.Store, homeDir *home.Dir, bookID string, logger *slog.Logger) (*RunSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	book, err := st.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("book %s: %w", bookID, ErrBookNotFound)
	}

	rows, err := st.PageRows(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load page rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("book %s has no staged pages", bookID)
	}

	pages, err := sequencedFromRows(bookID, rows)
	if err != nil {
		return nil, err
	}

	rep := pageseq.BuildClusterReport(pages)

	return persist(ctx, st, homeDir, book, pages, rep, logger)
}

// persist writes the run record and the report document, returning the
// run summary.
func persist(ctx context.Context, st *store.Store, homeDir *home.Dir, book *store.Book, pages []pageseq.SequencedPage, rep *pageseq.ClusterReport, logger *slog.Logger) (*RunSummary, error) {
	reportJSON, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	run := &store.Run{
		ID:            uuid.New().String(),
		BookID:        book.ID,
		PagesTotal:    len(pages),
		PagesFlagged:  countFlagged(pages),
		TotalClusters: rep.TotalClusters,
		ReportJSON:    string(reportJSON),
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	if err := homeDir.EnsureBookReportDir(book.ID); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	reportPath := homeDir.SequenceReportPath(book.ID)
	if err := os.WriteFile(reportPath, reportJSON, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("validation run complete",
		"book_id", book.ID,
		"run_id", run.ID,
		"pages", run.PagesTotal,
		"flagged", run.PagesFlagged,
		"clusters", run.TotalClusters,
	)

	return &RunSummary{
		RunID:         run.ID,
		BookID:        book.ID,
		Title:         book.Title,
		PagesTotal:    run.PagesTotal,
		PagesFlagged:  run.PagesFlagged,
		TotalClusters: run.TotalClusters,
		ReportPath:    reportPath,
	}, nil
}

// sequencedFromRows rebuilds SequencedPages from stored rows. The parsed
// number is recomputed from the printed value; the parser is total, so
// this cannot fail. An empty status column means the book was staged but
// never validated.
func sequencedFromRows(bookID string, rows []store.PageRow) ([]pageseq.SequencedPage, error) {
	pages := make([]pageseq.SequencedPage, 0, len(rows))
	for _, row := range rows {
		if row.Status == "" {
			return nil, fmt.Errorf("book %s: %w", bookID, ErrNotValidated)
		}
		status, err := pageseq.ParseStatus(row.Status)
		if err != nil {
			return nil, fmt.Errorf("page %d has malformed status: %w", row.ScanPage, err)
		}

		raw := ""
		if row.PrintedPage != nil {
			raw = *row.PrintedPage
		}

		pages = append(pages, pageseq.SequencedPage{
			PageObservation: pageseq.PageObservation{
				ScanPage: row.ScanPage,
				RawValue: raw,
			},
			Parsed:        pageseq.Parse(raw),
			Status:        status,
			Gap:           row.Gap,
			ExpectedValue: row.ExpectedValue,
			NeedsReview:   row.NeedsReview,
		})
	}
	return pages, nil
}

func countFlagged(pages []pageseq.SequencedPage) int {
	n := 0
	for _, p := range pages {
		if p.NeedsReview {
			n++
		}
	}
	return n
}
