// Package textutil holds text helpers shared by the cleaner and slicer.
package textutil

import (
	"regexp"
	"strings"
)

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// Normalize standardizes whitespace: CRLF becomes LF, runs of horizontal
// whitespace collapse to a single space, three or more consecutive
// newlines collapse to exactly two, and leading/trailing whitespace is
// trimmed. Normalize is idempotent.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// DistinctWords returns the number of distinct whitespace-separated
// words in s. Comparison is exact, no case folding.
func DistinctWords(s string) int {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		seen[w] = struct{}{}
	}
	return len(seen)
}
