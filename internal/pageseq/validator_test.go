package pageseq

import (
	"errors"
	"testing"
)

// obs builds observations with scan pages 1..n from printed values.
func obs(values ...string) []PageObservation {
	pages := make([]PageObservation, len(values))
	for i, v := range values {
		pages[i] = PageObservation{ScanPage: i + 1, RawValue: v}
	}
	return pages
}

func TestValidateEmptyInput(t *testing.T) {
	pages, err := Validate(nil)
	if err != nil {
		t.Fatalf("Validate(nil): %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("Validate(nil) returned %d pages", len(pages))
	}
}

func TestValidateFirstUsableValueIsFirstPage(t *testing.T) {
	pages, err := Validate(obs("", "3o", "5", "6"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if pages[0].Status.Kind != StatusNoNumber {
		t.Errorf("page 1 status = %v, want no_number", pages[0].Status)
	}
	if pages[1].Status.Kind != StatusUnparseable || !pages[1].NeedsReview {
		t.Errorf("page 2 = %+v, want flagged unparseable", pages[1])
	}
	// Neither of the first two pages moved the carry, so page 3 starts it.
	if pages[2].Status.Kind != StatusFirstPage || pages[2].NeedsReview {
		t.Errorf("page 3 = %+v, want first_page", pages[2])
	}
	if pages[3].Status.Kind != StatusOk || pages[3].Gap != 1 {
		t.Errorf("page 4 = %+v, want ok with gap 1", pages[3])
	}
}

func TestValidateGapBands(t *testing.T) {
	cases := []struct {
		name        string
		second      string
		wantKind    StatusKind
		wantMissing int
		wantGap     int
		wantReview  bool
	}{
		{"next value", "11", StatusOk, 0, 1, false},
		{"one skipped", "12", StatusGap, 1, 2, false},
		{"two skipped", "13", StatusGap, 2, 3, false},
		{"three skipped flagged", "14", StatusGap, 3, 4, true},
		{"repeated value", "10", StatusBackwardJump, 0, 0, true},
		{"backward", "9", StatusBackwardJump, 0, -1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pages, err := Validate(obs("10", tc.second))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			got := pages[1]
			if got.Status.Kind != tc.wantKind {
				t.Fatalf("status = %v, want kind %d", got.Status, tc.wantKind)
			}
			if got.Status.Missing != tc.wantMissing {
				t.Errorf("missing = %d, want %d", got.Status.Missing, tc.wantMissing)
			}
			if got.Gap != tc.wantGap {
				t.Errorf("gap = %d, want %d", got.Gap, tc.wantGap)
			}
			if got.NeedsReview != tc.wantReview {
				t.Errorf("needs_review = %v, want %v", got.NeedsReview, tc.wantReview)
			}
			if got.ExpectedValue != "11" {
				t.Errorf("expected_value = %q, want %q", got.ExpectedValue, "11")
			}
		})
	}
}

func TestValidateTypeChangeResetsBaseline(t *testing.T) {
	pages, err := Validate(obs("iv", "v", "1", "2"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p3 := pages[2]
	if p3.Status.Kind != StatusTypeChange {
		t.Fatalf("page 3 status = %v, want type_change", p3.Status)
	}
	if p3.ExpectedValue != "6" {
		t.Errorf("page 3 expected_value = %q, want %q", p3.ExpectedValue, "6")
	}
	if p3.Gap != 0 || p3.NeedsReview {
		t.Errorf("page 3 = %+v, want gap 0 and no review", p3)
	}
	// The arabic 1 became the new baseline.
	if pages[3].Status.Kind != StatusOk {
		t.Errorf("page 4 status = %v, want ok", pages[3].Status)
	}
}

func TestValidateTypeChangeArabicToRoman(t *testing.T) {
	pages, err := Validate(obs("5", "vi"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	p2 := pages[1]
	if p2.Status.Kind != StatusTypeChange || p2.ExpectedValue != "6" {
		t.Fatalf("page 2 = %+v, want type_change expecting %q", p2, "6")
	}
}

func TestValidateCarryTracksObservedValue(t *testing.T) {
	pages, err := Validate(obs("10", "9", "10"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if pages[1].Status.Kind != StatusBackwardJump {
		t.Fatalf("page 2 status = %v, want backward_jump", pages[1].Status)
	}
	// The carry took the 9, so the following 10 reads as a clean advance.
	if pages[2].Status.Kind != StatusOk || pages[2].Gap != 1 {
		t.Fatalf("page 3 = %+v, want ok with gap 1", pages[2])
	}
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name     string
		input    []PageObservation
		wantPage int
	}{
		{"duplicate scan page", []PageObservation{{ScanPage: 1}, {ScanPage: 1}}, 1},
		{"descending scan page", []PageObservation{{ScanPage: 2}, {ScanPage: 1}}, 1},
		{"scan page below 1", []PageObservation{{ScanPage: 0}}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.input)
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error %v does not wrap ErrInvalidInput", err)
			}
			var inv *InvalidInputError
			if !errors.As(err, &inv) {
				t.Fatalf("error %T is not *InvalidInputError", err)
			}
			if inv.ScanPage != tc.wantPage {
				t.Fatalf("offending scan page = %d, want %d", inv.ScanPage, tc.wantPage)
			}
		})
	}
}

func TestValidateStatusInvariants(t *testing.T) {
	input := obs("", "i", "ii", "iii", "junk!", "1", "2", "4", "9", "8", "", "9")
	pages, err := Validate(input)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(pages) != len(input) {
		t.Fatalf("got %d pages for %d observations", len(pages), len(input))
	}

	for i, p := range pages {
		if p.ScanPage != input[i].ScanPage {
			t.Errorf("page order broken at index %d: scan page %d", i, p.ScanPage)
		}
		switch p.Status.Kind {
		case StatusOk:
			if p.Gap != 1 || p.NeedsReview {
				t.Errorf("ok page %d violates invariants: %+v", p.ScanPage, p)
			}
		case StatusFirstPage, StatusNoNumber:
			if p.NeedsReview {
				t.Errorf("page %d with status %v is flagged", p.ScanPage, p.Status)
			}
		}
	}
}
