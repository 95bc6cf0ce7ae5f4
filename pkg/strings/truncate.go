// Package strings holds small text helpers shared by the output formatters.
package strings

import (
	"strings"
)

const (
	// DefaultTitleMaxLen bounds page titles in table output.
	DefaultTitleMaxLen = 60

	// DefaultURLMaxLen bounds URLs in table output.
	DefaultURLMaxLen = 80
)

// MinTruncateLen is the smallest maxLen Truncate honours: one character
// plus "...".
const MinTruncateLen = 4

// Truncate makes s a single line and cuts it to at most maxLen runes,
// ending with "..." when something was removed. Runs of whitespace,
// including newlines, collapse to one space. maxLen below MinTruncateLen is
// raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
