package table

import (
	"strings"
	"unicode"
)

// DefaultHeader is the header row that identifies the race schedule table
const DefaultHeader = "|Race|Date|Release Date|Notes|"

// Locate returns the first table block in text that begins with header.
// The block runs from the header to the line before the first blank or
// whitespace-only line, or to the end of text. It returns false when the header does not occur.
func Locate(text, header string) (string, bool) {
	if header == "" {
		header = DefaultHeader
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	start := strings.Index(text, header)
	if start < 0 {
		return "", false
	}

	lines := strings.Split(text[start:], "\n")
	n := 1
	for n < len(lines) && strings.TrimSpace(lines[n]) != "" {
		n++
	}

	return strings.TrimRightFunc(strings.Join(lines[:n], "\n"), unicode.IsSpace), true
}
