package admission_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esmailgumaan/contact_svc/internal/admission"
)

func TestSanitizeRemovesControlCharactersAndTrims(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text untouched", input: "hello world", expected: "hello world"},
		{name: "null bytes removed", input: "hel\x00lo", expected: "hello"},
		{name: "carriage returns removed", input: "line one\r\nline two\r", expected: "line one\nline two"},
		{name: "surrounding whitespace trimmed", input: "  spaced out \t", expected: "spaced out"},
		{name: "empty input", input: "", expected: ""},
		{name: "whitespace only", input: " \t\n ", expected: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, admission.Sanitize(testCase.input))
		})
	}
}

func TestSanitizeTruncatesLongText(t *testing.T) {
	longText := strings.Repeat("a", 2501)
	sanitized := admission.Sanitize(longText)
	require.Len(t, sanitized, 2000)
}

func TestSanitizeKeepsTextAtExactLimit(t *testing.T) {
	exactText := strings.Repeat("b", 2000)
	require.Equal(t, exactText, admission.Sanitize(exactText))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"  messy\x00 input\r here  ",
		strings.Repeat("x", 3000),
		strings.Repeat("y ", 1500),
		"already clean",
	}

	for _, input := range inputs {
		once := admission.Sanitize(input)
		twice := admission.Sanitize(once)
		require.Equal(t, once, twice)
	}
}
