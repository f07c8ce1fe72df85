package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength caps the transcript passed into text generation
const DefaultMaxLength = 15000

// TruncationMarker is appended when a transcript is cut at the limit
const TruncationMarker = "..."

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Normalize collapses every whitespace run, newlines included, to a single
// space and trims the ends.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// Preprocess normalizes whitespace and enforces the length limit. Text over
// the limit is cut at the nearest rune boundary at or below the limit and
// marked, so a truncated result never exceeds limit+3 bytes.
func Preprocess(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	normalized := Normalize(text)
	if len(normalized) <= maxLength {
		return normalized
	}
	return truncateAtRuneBoundary(normalized, maxLength) + TruncationMarker
}

// truncateAtRuneBoundary cuts s to at most limit bytes without splitting a
// multi-byte rune. limit must be less than len(s).
func truncateAtRuneBoundary(s string, limit int) string {
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
