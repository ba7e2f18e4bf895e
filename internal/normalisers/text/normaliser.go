// Package text normalises whitespace in extracted document text.
package text

import (
	"regexp"
	"strings"
)

var (
	spaceRun = regexp.MustCompile(`[ \t]+`)
	lineEnd  = regexp.MustCompile(`[ \t]+\n`)
	blankRun = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)
)

// Normalise collapses runs of spaces to one, drops spaces before a line
// break, collapses two or more consecutive line breaks to a single blank
// line, and trims the result.
// Normalise(Normalise(s)) == Normalise(s).
func Normalise(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = lineEnd.ReplaceAllString(s, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Paragraphs splits normalised text on blank lines and drops empty parts.
func Paragraphs(s string) []string {
	parts := strings.Split(s, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Lines returns the trimmed non-empty lines of s.
func Lines(s string) []string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
