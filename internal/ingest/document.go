package ingest

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/collate/internal/pageseq"
)

//go:embed document_schema.json
var documentSchemaJSON string

var documentSchema = jsonschema.MustCompileString("document_schema.json", documentSchemaJSON)

// Document is an observation document: per-page printed-number readings
// for one book, in scan order.
type Document struct {
	Title  string                    `json:"title,omitempty"`
	Author string                    `json:"author,omitempty"`
	Pages  []pageseq.PageObservation `json:"pages"`
}

// ParseDocument validates and decodes an observation document.
// Structural problems surface as schema errors; scan index problems
// surface as *pageseq.InvalidInputError.
func ParseDocument(data []byte) (*Document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid document JSON: %w", err)
	}
	if err := documentSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("document does not match schema: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	if err := checkScanOrder(doc.Pages); err != nil {
		return nil, err
	}

	return &doc, nil
}

// checkScanOrder enforces the scan index contract: pages cover every
// scanned position, so scan_page runs 1..N with no duplicates or holes.
func checkScanOrder(pages []pageseq.PageObservation) error {
	last := 0
	for _, p := range pages {
		switch {
		case p.ScanPage == last:
			return &pageseq.InvalidInputError{ScanPage: p.ScanPage, Reason: "duplicate scan page"}
		case p.ScanPage < last:
			return &pageseq.InvalidInputError{ScanPage: p.ScanPage, Reason: "scan pages must be strictly ascending"}
		case p.ScanPage != last+1:
			return &pageseq.InvalidInputError{ScanPage: p.ScanPage, Reason: fmt.Sprintf("scan pages must be contiguous, expected %d", last+1)}
		}
		last = p.ScanPage
	}
	return nil
}
