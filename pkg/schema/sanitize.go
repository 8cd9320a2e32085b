package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxTextSize is the byte limit applied to text fields that do not
// declare their own.
var DefaultMaxTextSize = 4096

var (
	ErrTextTooLarge = errors.New("text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("text contains invalid UTF-8 sequences")
)

// SanitizeText enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func SanitizeText(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxTextSize
	}
	if len(input) > limit {
		// Rejected rather than truncated so the rendered text is what was asked for.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTextTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
