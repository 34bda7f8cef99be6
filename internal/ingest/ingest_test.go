package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/collate/internal/pageseq"
	"github.com/jackzampolin/collate/internal/store"
)

func TestParseDocument(t *testing.T) {
	doc := `{
		"title": "Crusade in Europe",
		"author": "Dwight D. Eisenhower",
		"pages": [
			{"scan_page": 1, "printed_page_number": "i"},
			{"scan_page": 2, "printed_page_number": "ii"},
			{"scan_page": 3, "printed_page_number": "1"},
			{"scan_page": 4},
			{"scan_page": 5, "printed_page_number": null}
		]
	}`

	parsed, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if parsed.Title != "Crusade in Europe" {
		t.Errorf("expected title Crusade in Europe, got %q", parsed.Title)
	}
	if parsed.Author != "Dwight D. Eisenhower" {
		t.Errorf("expected author, got %q", parsed.Author)
	}
	if len(parsed.Pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(parsed.Pages))
	}
	if parsed.Pages[2].RawValue != "1" {
		t.Errorf("expected page 3 raw value 1, got %q", parsed.Pages[2].RawValue)
	}
	// Absent and null printed_page_number both decode as empty
	if parsed.Pages[3].RawValue != "" {
		t.Errorf("expected page 4 raw value empty, got %q", parsed.Pages[3].RawValue)
	}
	if parsed.Pages[4].RawValue != "" {
		t.Errorf("expected page 5 raw value empty, got %q", parsed.Pages[4].RawValue)
	}
}

func TestParseDocumentRejectsMalformedJSON(t *testing.T) {
	_, err := ParseDocument([]byte(`{"pages": [`))
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestParseDocumentSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing pages",
			doc:  `{"title": "A Book"}`,
		},
		{
			name: "empty pages",
			doc:  `{"pages": []}`,
		},
		{
			name: "missing scan_page",
			doc:  `{"pages": [{"printed_page_number": "1"}]}`,
		},
		{
			name: "zero scan_page",
			doc:  `{"pages": [{"scan_page": 0}]}`,
		},
		{
			name: "non-integer scan_page",
			doc:  `{"pages": [{"scan_page": "1"}]}`,
		},
		{
			name: "unknown page field",
			doc:  `{"pages": [{"scan_page": 1, "page_number": "1"}]}`,
		},
		{
			name: "unknown top-level field",
			doc:  `{"pages": [{"scan_page": 1}], "isbn": "123"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDocument([]byte(tt.doc)); err == nil {
				t.Error("expected schema violation error")
			}
		})
	}
}

func TestParseDocumentScanOrderViolations(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		scanPage int
	}{
		{
			name:     "does not start at 1",
			doc:      `{"pages": [{"scan_page": 2}, {"scan_page": 3}]}`,
			scanPage: 2,
		},
		{
			name:     "duplicate scan page",
			doc:      `{"pages": [{"scan_page": 1}, {"scan_page": 1}]}`,
			scanPage: 1,
		},
		{
			name:     "descending scan page",
			doc:      `{"pages": [{"scan_page": 1}, {"scan_page": 2}, {"scan_page": 1}]}`,
			scanPage: 1,
		},
		{
			name:     "hole in scan index",
			doc:      `{"pages": [{"scan_page": 1}, {"scan_page": 3}]}`,
			scanPage: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected scan order error")
			}
			if !errors.Is(err, pageseq.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *pageseq.InvalidInputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected *InvalidInputError, got %T", err)
			}
			if inputErr.ScanPage != tt.scanPage {
				t.Errorf("expected error at scan page %d, got %d", tt.scanPage, inputErr.ScanPage)
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/to/crusade-europe.json", "crusade-europe"},
		{"/path/to/my-book-1.json", "my-book"},
		{"/path/to/my-book-10.json", "my-book"},
		{"simple.json", "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := deriveTitle(tt.input)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func writeTestDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test document: %v", err)
	}
	return path
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "collate.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	doc := `{
		"title": "Test Book",
		"pages": [
			{"scan_page": 1, "printed_page_number": "1"},
			{"scan_page": 2, "printed_page_number": "2"},
			{"scan_page": 3, "printed_page_number": "4"}
		]
	}`
	path := writeTestDoc(t, t.TempDir(), "test-book.json", doc)

	res, err := Ingest(ctx, st, Request{Path: path})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if res.Title != "Test Book" {
		t.Errorf("expected title Test Book, got %q", res.Title)
	}
	if res.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", res.PageCount)
	}

	// Book and pages should be staged
	book, err := st.GetBook(ctx, res.BookID)
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if book == nil {
		t.Fatal("expected staged book")
	}
	if book.PageCount != 3 {
		t.Errorf("expected page_count 3, got %d", book.PageCount)
	}

	obs, err := st.Observations(ctx, res.BookID)
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs))
	}
	if obs[2].ScanPage != 3 || obs[2].RawValue != "4" {
		t.Errorf("unexpected observation: %+v", obs[2])
	}
}

func TestIngestTitleOverride(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	doc := `{"title": "Document Title", "pages": [{"scan_page": 1, "printed_page_number": "1"}]}`
	path := writeTestDoc(t, t.TempDir(), "doc.json", doc)

	res, err := Ingest(ctx, st, Request{Path: path, Title: "Override", Author: "Someone"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Title != "Override" {
		t.Errorf("expected title Override, got %q", res.Title)
	}
	if res.Author != "Someone" {
		t.Errorf("expected author Someone, got %q", res.Author)
	}
}

func TestIngestDerivesTitleFromFilename(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	doc := `{"pages": [{"scan_page": 1, "printed_page_number": "1"}]}`
	path := writeTestDoc(t, t.TempDir(), "field-guide-1.json", doc)

	res, err := Ingest(ctx, st, Request{Path: path})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Title != "field-guide" {
		t.Errorf("expected derived title field-guide, got %q", res.Title)
	}
}

func TestIngestRejectsBadDocument(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	doc := `{"pages": [{"scan_page": 1}, {"scan_page": 3}]}`
	path := writeTestDoc(t, t.TempDir(), "bad.json", doc)

	_, err := Ingest(ctx, st, Request{Path: path})
	if !errors.Is(err, pageseq.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Nothing should be staged
	books, err := st.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected no staged books, got %d", len(books))
	}
}

func TestIngestMissingFile(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, err := Ingest(ctx, st, Request{Path: filepath.Join(t.TempDir(), "nope.json")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
