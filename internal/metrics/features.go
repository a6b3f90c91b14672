// Package metrics holds Prometheus collectors for turns, runs and tool calls,
// plus local size features of user input.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures computes byte, rune, word, and line counts for s.
func CountFeatures(s string) Features {
	f := Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	// Empty input has zero lines; otherwise 1 plus the number of newlines.
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}
