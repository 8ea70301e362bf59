package source

import (
	"regexp"
	"strings"
	"unicode"
)

var blankRun = regexp.MustCompile(`\s{2,}`)

// asciiBlanks maps non-ASCII blanks (NBSP, narrow NBSP before French
// punctuation, en/em/ideographic spaces, line separators) to a plain space.
func asciiBlanks(r rune) rune {
	if r > unicode.MaxASCII && unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// CleanText trims s and collapses every run of two or more blank characters
// into a single space.
func CleanText(s string) string {
	s = strings.TrimSpace(strings.Map(asciiBlanks, s))
	return blankRun.ReplaceAllString(s, " ")
}
