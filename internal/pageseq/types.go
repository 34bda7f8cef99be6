// Package pageseq validates printed page-number sequences read from scanned
// books and groups defective pages into typed, prioritized clusters.
//
// The engine is three pure stages: Parse types one printed number string,
// Validate walks the scan order classifying each page against the expected
// next value, and BuildClusterReport collapses flagged pages into clusters
// for downstream review. Every stage is deterministic and side-effect free;
// the same input always produces the same output.
package pageseq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NumberType describes what kind of printed number a page carries.
type NumberType int

const (
	// NumberNone means the page shows no printed number at all.
	NumberNone NumberType = iota
	// NumberRoman is a roman-numeral page number (front matter, typically).
	NumberRoman
	// NumberArabic is an ordinary decimal page number.
	NumberArabic
	// NumberOther means something was printed but it is not a usable
	// number, usually an OCR artifact like "3o" for "30".
	NumberOther
)

var numberTypeNames = map[NumberType]string{
	NumberNone:   "none",
	NumberRoman:  "roman",
	NumberArabic: "arabic",
	NumberOther:  "other",
}

func (t NumberType) String() string {
	if name, ok := numberTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("numbertype(%d)", int(t))
}

// ParsedNumber is the typed reading of one printed page number.
// Value is meaningful only when HasValue reports true.
type ParsedNumber struct {
	Type  NumberType
	Value int
}

// HasValue reports whether the parse produced a usable numeric value.
func (p ParsedNumber) HasValue() bool {
	return p.Type == NumberRoman || p.Type == NumberArabic
}

// PageObservation is one scanned page as reported by the extraction stages:
// its physical position in the scan and whatever number OCR read off it.
type PageObservation struct {
	ScanPage int    `json:"scan_page"`
	RawValue string `json:"printed_page_number"`
}

// StatusKind identifies the classification Validate assigned to a page.
type StatusKind int

const (
	StatusOk StatusKind = iota
	StatusFirstPage
	StatusNoNumber
	StatusUnparseable
	StatusTypeChange
	StatusGap
	StatusBackwardJump

	// The kinds below are never produced by Validate. The clustering
	// passes still recognize them so sequence rows written by another
	// producer cluster correctly.
	StatusGapMismatch
	StatusIsolated
	StatusEdgeGap
	StatusMultiPageJump
)

var statusNames = map[StatusKind]string{
	StatusOk:            "ok",
	StatusFirstPage:     "first_page",
	StatusNoNumber:      "no_number",
	StatusUnparseable:   "unparseable",
	StatusTypeChange:    "type_change",
	StatusGap:           "gap",
	StatusBackwardJump:  "backward_jump",
	StatusGapMismatch:   "gap_mismatch",
	StatusIsolated:      "isolated",
	StatusEdgeGap:       "edge_gap",
	StatusMultiPageJump: "multi_page_jump",
}

// PageStatus is a classification plus the numeric payload some kinds carry.
// Gap statuses hold the count of skipped printed numbers in Missing;
// GapMismatch statuses hold ActualGap and ExpectedGap.
type PageStatus struct {
	Kind        StatusKind
	Missing     int
	ActualGap   int
	ExpectedGap int
}

// Settled reports whether the status describes expected progression that no
// clustering pass should look at.
func (s PageStatus) Settled() bool {
	switch s.Kind {
	case StatusOk, StatusFirstPage, StatusTypeChange:
		return true
	}
	return false
}

// String renders the status in its storage form: the bare kind name, with
// numeric payloads appended as colon-separated suffixes.
func (s PageStatus) String() string {
	name, ok := statusNames[s.Kind]
	if !ok {
		return fmt.Sprintf("status(%d)", int(s.Kind))
	}
	switch s.Kind {
	case StatusGap:
		return fmt.Sprintf("%s:%d", name, s.Missing)
	case StatusGapMismatch:
		return fmt.Sprintf("%s:%d:%d", name, s.ActualGap, s.ExpectedGap)
	}
	return name
}

// ParseStatus is the inverse of PageStatus.String.
func ParseStatus(raw string) (PageStatus, error) {
	parts := strings.Split(raw, ":")

	var kind StatusKind
	found := false
	for k, name := range statusNames {
		if name == parts[0] {
			kind = k
			found = true
			break
		}
	}
	if !found {
		return PageStatus{}, fmt.Errorf("unknown page status %q", raw)
	}

	status := PageStatus{Kind: kind}
	switch kind {
	case StatusGap:
		if len(parts) != 2 {
			return PageStatus{}, fmt.Errorf("malformed gap status %q", raw)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return PageStatus{}, fmt.Errorf("malformed gap status %q", raw)
		}
		status.Missing = n
	case StatusGapMismatch:
		if len(parts) != 3 {
			return PageStatus{}, fmt.Errorf("malformed gap mismatch status %q", raw)
		}
		actual, err := strconv.Atoi(parts[1])
		if err != nil {
			return PageStatus{}, fmt.Errorf("malformed gap mismatch status %q", raw)
		}
		expected, err := strconv.Atoi(parts[2])
		if err != nil {
			return PageStatus{}, fmt.Errorf("malformed gap mismatch status %q", raw)
		}
		status.ActualGap = actual
		status.ExpectedGap = expected
	default:
		if len(parts) != 1 {
			return PageStatus{}, fmt.Errorf("malformed page status %q", raw)
		}
	}
	return status, nil
}

// MarshalJSON encodes the status as its storage string.
func (s PageStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status from its storage string.
func (s *PageStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SequencedPage is one page after validation: the observation, its parsed
// number, and its relationship to the expected next value. Gap is the signed
// distance from the previous usable value and stays 0 when no comparison was
// possible. ExpectedValue is what the sequence said should have come next,
// rendered decimal.
type SequencedPage struct {
	PageObservation
	Parsed        ParsedNumber `json:"-"`
	Status        PageStatus   `json:"status"`
	Gap           int          `json:"gap"`
	ExpectedValue string       `json:"expected_value,omitempty"`
	NeedsReview   bool         `json:"needs_review"`
}

// ErrInvalidInput marks observation sequences that violate the input
// contract. Use errors.Is to test for it; the concrete *InvalidInputError
// names the offending scan page.
var ErrInvalidInput = errors.New("invalid page sequence input")

// InvalidInputError reports a malformed observation sequence.
type InvalidInputError struct {
	ScanPage int
	Reason   string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid page sequence input at scan page %d: %s", e.ScanPage, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }
