package pageseq

import "strconv"

// carry is the state threaded through validation: the type and value of the
// most recent page whose parsed number was usable.
type carry struct {
	typ   NumberType
	value int
	set   bool
}

// Validate walks observations in scan order and classifies each page's
// relationship to the expected next printed number. The output is total and
// order-preserving: one SequencedPage per observation.
//
// The only failure mode is a malformed input sequence. Scan pages must start
// at 1 or above and strictly ascend; violations return an *InvalidInputError
// naming the offending page, and callers should reject such input at the
// boundary before reaching this engine.
func Validate(obs []PageObservation) ([]SequencedPage, error) {
	pages := make([]SequencedPage, 0, len(obs))
	var state carry
	lastScan := 0
	for _, o := range obs {
		if o.ScanPage < 1 {
			return nil, &InvalidInputError{ScanPage: o.ScanPage, Reason: "scan page must be at least 1"}
		}
		if o.ScanPage == lastScan {
			return nil, &InvalidInputError{ScanPage: o.ScanPage, Reason: "duplicate scan page"}
		}
		if o.ScanPage < lastScan {
			return nil, &InvalidInputError{ScanPage: o.ScanPage, Reason: "scan pages must be strictly ascending"}
		}
		lastScan = o.ScanPage

		var page SequencedPage
		state, page = step(state, o)
		pages = append(pages, page)
	}
	return pages, nil
}

// step classifies one observation against the carried numbering state and
// returns the updated state. Pages without a usable value never move the
// carry, so blank or garbled pages do not disturb the baseline.
func step(state carry, o PageObservation) (carry, SequencedPage) {
	page := SequencedPage{PageObservation: o, Parsed: Parse(o.RawValue)}

	switch {
	case page.Parsed.Type == NumberNone:
		page.Status = PageStatus{Kind: StatusNoNumber}

	case !page.Parsed.HasValue():
		page.Status = PageStatus{Kind: StatusUnparseable}
		page.NeedsReview = true

	case !state.set:
		page.Status = PageStatus{Kind: StatusFirstPage}
		state = carry{typ: page.Parsed.Type, value: page.Parsed.Value, set: true}

	case page.Parsed.Type != state.typ:
		// The numbering scheme switched, usually front matter giving way
		// to the body. The new type becomes the new baseline.
		page.Status = PageStatus{Kind: StatusTypeChange}
		page.ExpectedValue = strconv.Itoa(state.value + 1)
		state = carry{typ: page.Parsed.Type, value: page.Parsed.Value, set: true}

	default:
		gap := page.Parsed.Value - state.value
		page.Gap = gap
		page.ExpectedValue = strconv.Itoa(state.value + 1)
		switch {
		case gap <= 0:
			// A repeated printed number lands here too: either way the
			// sequence failed to advance.
			page.Status = PageStatus{Kind: StatusBackwardJump}
			page.NeedsReview = true
		case gap == 1:
			page.Status = PageStatus{Kind: StatusOk}
		case gap <= 3:
			// One or two silently skipped numbers, the usual blank-leaf
			// pattern. Recorded but not flagged.
			page.Status = PageStatus{Kind: StatusGap, Missing: gap - 1}
		default:
			page.Status = PageStatus{Kind: StatusGap, Missing: gap - 1}
			page.NeedsReview = true
		}
		// The carry tracks the value most recently observed, not the one
		// expected, so the sequence resynchronizes on the next clean page
		// even after a defect.
		state = carry{typ: page.Parsed.Type, value: page.Parsed.Value, set: true}
	}

	return state, page
}
