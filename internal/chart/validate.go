package chart

import (
	"strings"
	"unicode"
)

// MaxRank is the largest rank any tracked chart publishes.
const MaxRank = 200

// Valid reports whether an entry satisfies the structural invariants:
// rank within [1, MaxRank] and non-empty title and artist after
// whitespace normalization. Every adapter must route entries through
// this check before emitting them.
func Valid(e Entry) bool {
	if e.Rank < 1 || e.Rank > MaxRank {
		return false
	}
	if strings.TrimSpace(e.Title) == "" {
		return false
	}
	return strings.TrimSpace(e.Artist) != ""
}

// CleanText trims the input and collapses internal whitespace runs
// (including newlines) into single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SafeInt extracts the digits of s and parses them as a non-negative
// integer. Non-numeric input yields 0.
func SafeInt(s string) int {
	n := 0
	seen := false
	for _, r := range s {
		if !unicode.IsDigit(r) {
			continue
		}
		seen = true
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0
		}
	}
	if !seen {
		return 0
	}
	return n
}
