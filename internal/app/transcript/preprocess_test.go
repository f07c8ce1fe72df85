package transcript

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "mixed spaces and newlines",
			input:    "This   has    extra   spaces\n and  \n   newlines",
			expected: "This has extra spaces and newlines",
		},
		{
			name:     "tabs and carriage returns",
			input:    "a\t\tb\r\nc",
			expected: "a b c",
		},
		{
			name:     "already clean",
			input:    "nothing to do here",
			expected: "nothing to do here",
		},
		{
			name:     "leading and trailing whitespace",
			input:    "  \n padded \t ",
			expected: "padded",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    " \n\t ",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Normalize(tc.input)
			assert.Equal(t, tc.expected, result)
			assert.NotContains(t, result, "  ")
			assert.NotContains(t, result, "\n")
		})
	}
}

func TestPreprocess_NoTruncation(t *testing.T) {
	input := "short   transcript"
	result := Preprocess(input, 100)
	// below the limit the result is pure normalization, no marker
	assert.Equal(t, Normalize(input), result)
	assert.False(t, strings.HasSuffix(result, TruncationMarker))
}

func TestPreprocess_Truncation(t *testing.T) {
	limit := 50
	input := strings.Repeat("word ", 100)

	result := Preprocess(input, limit)
	assert.Len(t, result, limit+3)
	assert.True(t, strings.HasSuffix(result, TruncationMarker))
}

func TestPreprocess_TruncationKeepsRunesIntact(t *testing.T) {
	// 3-byte runes offset by one so the limit lands mid-rune
	input := "a" + strings.Repeat("語", 40)
	limit := 30

	result := Preprocess(input, limit)
	assert.True(t, utf8.ValidString(result))
	assert.True(t, strings.HasSuffix(result, TruncationMarker))
	assert.LessOrEqual(t, len(result), limit+len(TruncationMarker))
}

func TestPreprocess_ExactLimit(t *testing.T) {
	limit := 10
	input := strings.Repeat("a", limit)

	result := Preprocess(input, limit)
	assert.Equal(t, input, result)
	assert.Len(t, result, limit)
}

func TestPreprocess_DefaultLimit(t *testing.T) {
	input := strings.Repeat("a", DefaultMaxLength+500)
	result := Preprocess(input, 0)
	assert.Len(t, result, DefaultMaxLength+3)
}
