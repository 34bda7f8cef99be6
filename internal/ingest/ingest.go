// Package ingest stages observation documents into the collate store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/collate/internal/store"
)

// Request contains the parameters for ingesting an observation document.
type Request struct {
	Path    string       // Observation document path
	Title   string       // Book title (optional, overrides the document's)
	Author  string       // Book author (optional, overrides the document's)
	PDFPath string       // Optional source PDF for a page-count crosscheck
	Logger  *slog.Logger // Optional logger for progress updates
}

// Result contains the result of a successful ingest operation.
type Result struct {
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	PageCount int    `json:"page_count"`
}

// Ingest parses an observation document file and stages it as a new book.
func Ingest(ctx context.Context, st *store.Store, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	// Derive title from the filename when neither the request nor the
	// document carries one
	if req.Title == "" && doc.Title == "" {
		req.Title = deriveTitle(req.Path)
	}

	if req.PDFPath != "" {
		if err := verifyPageCount(req.PDFPath, len(doc.Pages)); err != nil {
			return nil, err
		}
	}

	log.Debug("staging document", "path", filepath.Base(req.Path), "pages", len(doc.Pages))

	return StageDocument(ctx, st, doc, req)
}

// StageDocument stages an already parsed document as a new book.
// Request metadata takes precedence over the document's own, and
// documents with no title at all are staged as "untitled".
func StageDocument(ctx context.Context, st *store.Store, doc *Document, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	title := req.Title
	if title == "" {
		title = doc.Title
	}
	if title == "" {
		title = "untitled"
	}

	author := req.Author
	if author == "" {
		author = doc.Author
	}

	book, err := st.CreateBook(ctx, title, author)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	if err := st.ReplacePages(ctx, book.ID, doc.Pages); err != nil {
		// Clean up on failure
		if _, delErr := st.DeleteBook(ctx, book.ID); delErr != nil {
			log.Warn("failed to clean up book after staging error", "book_id", book.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to stage pages: %w", err)
	}

	log.Info("ingest complete", "book_id", book.ID, "title", title, "pages", len(doc.Pages))

	return &Result{
		BookID:    book.ID,
		Title:     title,
		Author:    author,
		PageCount: len(doc.Pages),
	}, nil
}

// verifyPageCount checks the document's row count against the source PDF.
func verifyPageCount(pdfPath string, pages int) error {
	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	count, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to get page count: %w", err)
	}
	if count != pages {
		return fmt.Errorf("page count mismatch: document has %d pages, PDF has %d", pages, count)
	}
	return nil
}

// deriveTitle extracts a title from a document filename.
// e.g., "crusade-europe.json" -> "crusade-europe"
// e.g., "my-book-1.json" -> "my-book"
func deriveTitle(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	// Remove numeric suffix like "-1", "-2", etc.
	re := regexp.MustCompile(`-\d+$`)
	name = re.ReplaceAllString(name, "")

	return name
}
