package pageseq

import (
	"strconv"
	"strings"
)

var romanDigits = map[rune]int{
	'i': 1,
	'v': 5,
	'x': 10,
	'l': 50,
	'c': 100,
	'd': 500,
	'm': 1000,
}

// Parse converts one printed page-number string into a typed value. It is
// total: every input, including garbage, maps to some ParsedNumber.
// Whitespace-only input is None, a string of roman digits is Roman, a string
// of decimal digits is Arabic, and anything else is Other.
func Parse(raw string) ParsedNumber {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ParsedNumber{Type: NumberNone}
	}
	if isRoman(trimmed) {
		return ParsedNumber{Type: NumberRoman, Value: romanValue(trimmed)}
	}
	if isDigits(trimmed) {
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			// A digit run long enough to overflow is OCR noise, not a
			// page number.
			return ParsedNumber{Type: NumberOther}
		}
		return ParsedNumber{Type: NumberArabic, Value: n}
	}
	return ParsedNumber{Type: NumberOther}
}

func isRoman(s string) bool {
	for _, r := range s {
		if _, ok := romanDigits[r]; !ok {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// romanValue evaluates a roman numeral right to left, tracking the largest
// digit seen so far: a smaller digit subtracts, anything else adds. This
// accepts non-canonical forms like "iiii" without complaint; printed books
// use them, so no grammar check is applied.
func romanValue(s string) int {
	total := 0
	prev := 0
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		v := romanDigits[runes[i]]
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total
}
