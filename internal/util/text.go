package util

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims the
// result. Raw search snippets arrive with newlines and double spaces baked in.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
