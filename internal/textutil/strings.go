package textutil

import (
	"strings"
	"unicode/utf8"
)

// PreviewString shortens message text for log lines: trimmed, at most
// maxRunes runes, with an ellipsis when cut.
func PreviewString(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if maxRunes <= 0 || s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes]) + "…"
}

// Truncate hard-caps s at maxChars runes. When truncation is needed the
// result ends in "..." and still fits within maxChars. The cut is made on
// rune boundaries so multi-byte characters are never split.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:maxChars])
	}
	return strings.TrimSpace(string(r[:maxChars-3])) + "..."
}
