package admission

import "strings"

const (
	sanitizedTextMaxLength = 2000

	runeNull           = '\x00'
	runeCarriageReturn = '\r'
)

// Sanitize strips NUL and carriage-return characters from the text, trims
// surrounding whitespace, and truncates the result to 2000 characters. It is
// pure and idempotent: sanitizing already-sanitized text returns it unchanged.
func Sanitize(text string) string {
	cleaned := strings.Map(func(character rune) rune {
		switch character {
		case runeNull, runeCarriageReturn:
			return -1
		default:
			return character
		}
	}, text)

	cleaned = strings.TrimSpace(cleaned)

	characters := []rune(cleaned)
	if len(characters) > sanitizedTextMaxLength {
		// Truncation can expose trailing whitespace; trim once more so the
		// function stays idempotent.
		cleaned = strings.TrimSpace(string(characters[:sanitizedTextMaxLength]))
	}

	return cleaned
}
