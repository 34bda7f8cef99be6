package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackzampolin/collate/internal/pageseq"
)

// PageRow is one scanned page as staged. PrintedPage is nil when the page
// showed no number. The sequence columns (Status onward) are empty until a
// validation run writes them; Status holds the storage form produced by
// pageseq.PageStatus.String.
type PageRow struct {
	BookID        string  `json:"-"`
	ScanPage      int     `json:"scan_page"`
	PrintedPage   *string `json:"printed_page_number"`
	Status        string  `json:"status,omitempty"`
	Gap           int     `json:"gap"`
	ExpectedValue string  `json:"expected_value,omitempty"`
	NeedsReview   bool    `json:"needs_review"`
}

// ReplacePages swaps in a fresh set of observation rows for a book, clearing
// any previous sequence columns, and updates the book's page count.
func (s *Store) ReplacePages(ctx context.Context, bookID string, obs []pageseq.PageObservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pages tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear pages: %w", err)
	}
	for _, o := range obs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO pages (book_id, scan_page, printed_page) VALUES (?, ?, ?)`,
			bookID,
			o.ScanPage,
			nullableString(o.RawValue),
		); err != nil {
			return fmt.Errorf("insert page %d: %w", o.ScanPage, err)
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE books SET page_count = ?, status = ?, updated_at = ? WHERE id = ?`,
		len(obs),
		BookStatusStaged,
		time.Now().UTC().Format(time.RFC3339Nano),
		bookID,
	); err != nil {
		return fmt.Errorf("update book page count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pages: %w", err)
	}
	return nil
}

// Observations returns the staged observation rows for a book in scan order.
func (s *Store) Observations(ctx context.Context, bookID string) ([]pageseq.PageObservation, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT scan_page, printed_page FROM pages WHERE book_id = ? ORDER BY scan_page`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var obs []pageseq.PageObservation
	for rows.Next() {
		var (
			scanPage int
			printed  sql.NullString
		)
		if err := rows.Scan(&scanPage, &printed); err != nil {
			return nil, err
		}
		obs = append(obs, pageseq.PageObservation{ScanPage: scanPage, RawValue: printed.String})
	}
	return obs, rows.Err()
}

// PageRows returns the full staged rows for a book in scan order, sequence
// columns included.
func (s *Store) PageRows(ctx context.Context, bookID string) ([]PageRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT book_id, scan_page, printed_page, status, gap, expected_value, needs_review
         FROM pages WHERE book_id = ? ORDER BY scan_page`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRow
	for rows.Next() {
		var (
			row         PageRow
			printed     sql.NullString
			needsReview int
		)
		if err := rows.Scan(&row.BookID, &row.ScanPage, &printed, &row.Status, &row.Gap, &row.ExpectedValue, &needsReview); err != nil {
			return nil, err
		}
		if printed.Valid {
			value := printed.String
			row.PrintedPage = &value
		}
		row.NeedsReview = needsReview != 0
		pages = append(pages, row)
	}
	return pages, rows.Err()
}

// SaveSequence writes the sequence columns produced by a validation run back
// onto the staged page rows.
func (s *Store) SaveSequence(ctx context.Context, bookID string, pages []pageseq.SequencedPage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sequence tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range pages {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE pages SET status = ?, gap = ?, expected_value = ?, needs_review = ?
             WHERE book_id = ? AND scan_page = ?`,
			p.Status.String(),
			p.Gap,
			p.ExpectedValue,
			boolToInt(p.NeedsReview),
			bookID,
			p.ScanPage,
		)
		if err != nil {
			return fmt.Errorf("update page %d: %w", p.ScanPage, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("update page %d: no staged row", p.ScanPage)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sequence: %w", err)
	}
	return nil
}
