package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookStatus tracks how far a staged book has progressed.
type BookStatus string

const (
	// BookStatusStaged means observation rows are loaded but no
	// validation run has completed.
	BookStatusStaged BookStatus = "staged"
	// BookStatusValidated means at least one validation run completed
	// and the pages carry sequence columns.
	BookStatusValidated BookStatus = "validated"
)

// Book is one staged scan set.
type Book struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author,omitempty"`
	PageCount int        `json:"page_count"`
	Status    BookStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateBook inserts a new staged book and returns it.
func (s *Store) CreateBook(ctx context.Context, title, author string) (*Book, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO books (id, title, author, page_count, status, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?, ?)`,
		id,
		title,
		author,
		BookStatusStaged,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return s.GetBook(ctx, id)
}

// GetBook fetches a book by id. Returns nil without error when no book
// matches.
func (s *Store) GetBook(ctx context.Context, id string) (*Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns all staged books ordered by creation time.
func (s *Store) ListBooks(ctx context.Context) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// DeleteBook removes a book and, via cascade, its pages and runs. Reports
// whether a row was deleted.
func (s *Store) DeleteBook(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const bookColumns = "id, title, author, page_count, status, created_at, updated_at"

func scanBook(scanner interface{ Scan(dest ...any) error }) (*Book, error) {
	var (
		id         string
		title      string
		author     sql.NullString
		pageCount  int
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &title, &author, &pageCount, &statusStr, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	book := &Book{
		ID:        id,
		Title:     title,
		Author:    author.String,
		PageCount: pageCount,
		Status:    BookStatus(statusStr),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		book.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		book.UpdatedAt = updated
	}
	return book, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
