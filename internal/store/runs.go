package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run records one completed validation run and its cluster report document.
type Run struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	CreatedAt     time.Time `json:"created_at"`
	PagesTotal    int       `json:"pages_total"`
	PagesFlagged  int       `json:"pages_flagged"`
	TotalClusters int       `json:"total_clusters"`
	ReportJSON    string    `json:"-"`
}

// SaveRun inserts a run record and marks the book validated.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.CreatedAt = time.Now().UTC()
	timestamp := run.CreatedAt.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (id, book_id, created_at, pages_total, pages_flagged, total_clusters, report_json)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.BookID,
		timestamp,
		run.PagesTotal,
		run.PagesFlagged,
		run.TotalClusters,
		run.ReportJSON,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE books SET status = ?, updated_at = ? WHERE id = ?`,
		BookStatusValidated,
		timestamp,
		run.BookID,
	); err != nil {
		return fmt.Errorf("mark book validated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run for a book, or nil when the book has
// never been validated.
func (s *Store) LatestRun(ctx context.Context, bookID string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE book_id = ? ORDER BY created_at DESC, id LIMIT 1`,
		bookID,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs for a book, newest first.
func (s *Store) ListRuns(ctx context.Context, bookID string) ([]*Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE book_id = ? ORDER BY created_at DESC, id`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const runColumns = "id, book_id, created_at, pages_total, pages_flagged, total_clusters, report_json"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		createdRaw string
	)
	if err := scanner.Scan(&run.ID, &run.BookID, &createdRaw, &run.PagesTotal, &run.PagesFlagged, &run.TotalClusters, &run.ReportJSON); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		run.CreatedAt = created
	}
	return &run, nil
}
